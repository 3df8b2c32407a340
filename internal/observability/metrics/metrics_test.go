package metrics

import (
	"testing"
	"time"
)

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	IncExplanation("", "")
	ObserveGenerator("", time.Second)
	IncGeneratorRetry()
	IncInteractionLogWrite("")
	IncInteractionLogFailure("")
	IncInteractionLogDropped()
	IncSimulatedCharge("")
	ObserveBillExport("", "", time.Millisecond)
	AddLiveClients(1)
}
