package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestRegisterIsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NoError(t, Register(reg))
	require.NoError(t, Register(reg))
}

func TestObserversDoNotPanicUnregistered(t *testing.T) {
	ObservePoll(PollOK)
	ObservePoll(PollUnreachable)
	ObserveDiagnosis(2*time.Second, OutcomeSuccess)
	ObserveDiagnosis(-1, OutcomeError)
	ObserveRemediation(true)
	ObserveRemediation(false)
}
