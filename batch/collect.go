package batch

import (
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/boyter/gocodewalker"

	"github.com/rlch/graphsync"
)

// Collect expands args into batch file paths. Directories are walked for
// .yaml and .yml files, honouring .gitignore and skipping hidden files and
// config files. The result is sorted.
func Collect(args []string) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		err = walkBatchFiles(arg, func(path string) {
			if !slices.Contains(graphsync.DefaultConfigNames, filepath.Base(path)) {
				files = append(files, path)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	slices.Sort(files)

	return files, nil
}

func walkBatchFiles(root string, callback func(path string)) error {
	fileListQueue := make(chan *gocodewalker.File, 100)

	fileWalker := gocodewalker.NewFileWalker(root, fileListQueue)
	fileWalker.AllowListExtensions = []string{"yaml", "yml"}

	var walkErr error

	fileWalker.SetErrorHandler(func(e error) bool {
		walkErr = e
		return true
	})

	var wg sync.WaitGroup

	wg.Add(1)

	go func() {
		defer wg.Done()

		for f := range fileListQueue {
			callback(f.Location)
		}
	}()

	if err := fileWalker.Start(); err != nil {
		return err
	}

	wg.Wait()

	return walkErr
}
