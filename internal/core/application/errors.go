package application

import "errors"

var (
	// ErrReentrantCall is returned when an operation is invoked from within
	// an external asset transfer of another operation.
	ErrReentrantCall = errors.New("reentrant call rejected")
	// ErrMissingRepoManager ...
	ErrMissingRepoManager = errors.New("missing repository manager")
	// ErrMissingCustody ...
	ErrMissingCustody = errors.New("missing asset custody")
	// ErrMissingDeployer ...
	ErrMissingDeployer = errors.New("missing instrument deployer")
	// ErrMissingOracleRegistry ...
	ErrMissingOracleRegistry = errors.New("missing oracle registry")
	// ErrUnknownDBType ...
	ErrUnknownDBType = errors.New("unknown db type")
	// ErrPubSubNotInitialized is returned when managing webhooks without a
	// pubsub service.
	ErrPubSubNotInitialized = errors.New("pubsub service is not initialized")
)
