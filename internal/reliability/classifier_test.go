package reliability

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/ent0n29/contactcenter/internal/agentcore"
)

func TestIsRetryableHTTPStatus(t *testing.T) {
	cases := []struct {
		code int
		want bool
	}{
		{200, false},
		{400, false},
		{429, true},
		{500, true},
		{503, true},
	}
	for _, tc := range cases {
		got := IsRetryableHTTPStatus(tc.code)
		if got != tc.want {
			t.Fatalf("IsRetryableHTTPStatus(%d) = %v, want %v", tc.code, got, tc.want)
		}
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want Cause
	}{
		{"nil", nil, ""},
		{"deadline", fmt.Errorf("remote intent: %w", context.DeadlineExceeded), CauseTimeout},
		{"canceled", context.Canceled, CauseCanceled},
		{"disabled", agentcore.ErrDisabled, CauseDisabled},
		{"429", &agentcore.StatusError{StatusCode: 429}, CauseRateLimited},
		{"502", fmt.Errorf("wrap: %w", &agentcore.StatusError{StatusCode: 502}), CauseUpstream},
		{"401", &agentcore.StatusError{StatusCode: 401}, CauseRejected},
		{"net timeout", &net.OpError{Op: "dial", Err: timeoutErr{}}, CauseTimeout},
		{"dns", &net.DNSError{Err: "no such host", Name: "agent.invalid"}, CauseNetwork},
		{"other", errors.New("empty reply"), CauseOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %q, want %q", tc.err, got, tc.want)
			}
		})
	}
}

func TestTransient(t *testing.T) {
	if !Transient(CauseUpstream) || !Transient(CauseTimeout) {
		t.Fatalf("upstream and timeout should be transient")
	}
	if Transient(CauseRejected) || Transient(CauseDisabled) {
		t.Fatalf("rejected and disabled should not be transient")
	}
}
