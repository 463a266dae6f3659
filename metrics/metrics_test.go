package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCalibration(t *testing.T) {
	okBefore := testutil.ToFloat64(CalibrationsTotal.WithLabelValues("test", "ok"))
	errBefore := testutil.ToFloat64(CalibrationsTotal.WithLabelValues("test", "error"))

	ObserveCalibration("test", time.Now(), 7, nil)
	ObserveCalibration("test", time.Now(), 0, errors.New("boom"))

	assert.Equal(t, okBefore+1, testutil.ToFloat64(CalibrationsTotal.WithLabelValues("test", "ok")))
	assert.Equal(t, errBefore+1, testutil.ToFloat64(CalibrationsTotal.WithLabelValues("test", "error")))
	assert.GreaterOrEqual(t, testutil.CollectAndCount(SolverIterations), 1)
}

func TestIncLink(t *testing.T) {
	before := testutil.ToFloat64(RegistryLinksTotal)
	IncLink()
	assert.Equal(t, before+1, testutil.ToFloat64(RegistryLinksTotal))
}
