package neo4j

import (
	"errors"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const transientErrorPrefix = "Neo.TransientError."

// isRetryable reports whether err is a connectivity failure or a transient server error.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// The driver reports an exhausted managed transaction with the
	// failures it saw; the last one decides.
	var limitErr *neo4j.TransactionExecutionLimit
	if errors.As(err, &limitErr) {
		if len(limitErr.Errors) == 0 {
			return false
		}

		return isRetryable(limitErr.Errors[len(limitErr.Errors)-1])
	}

	var connErr *neo4j.ConnectivityError
	if errors.As(err, &connErr) {
		return true
	}

	var dbErr *neo4j.Neo4jError
	if errors.As(err, &dbErr) {
		return strings.HasPrefix(dbErr.Code, transientErrorPrefix)
	}

	return false
}
