package orchestrator

import "fmt"

// RemoteCapabilityError is any failure on the remote agent path. The
// supervisor always recovers it by running the local pipeline.
type RemoteCapabilityError struct {
	Stage string
	Err   error
}

func (e *RemoteCapabilityError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Stage, e.Err)
}

func (e *RemoteCapabilityError) Unwrap() error { return e.Err }

// LocalPipelineError is a failure, or a recovered panic, inside the local
// stage sequence. It turns into the generic apology response.
type LocalPipelineError struct {
	Stage string
	Err   error
}

func (e *LocalPipelineError) Error() string {
	return fmt.Sprintf("local %s: %v", e.Stage, e.Err)
}

func (e *LocalPipelineError) Unwrap() error { return e.Err }
