package telemetry

import "fmt"

// defaultBaseTopic is used when no base topic is configured.
const defaultBaseTopic = "qtics"

// Topics builds the broker topic names used by a deployment. Using the
// builders keeps topic naming consistent between publishers and whatever
// dashboards subscribe on the other side.
//
//	topics := telemetry.Topics{Base: "lab3"}
//	topics.ExperimentStatus("s21_sweep")
//	// Returns: "lab3/experiment/s21_sweep/status"
type Topics struct {
	// Base is the leading topic segment; defaults to "qtics".
	Base string
}

func (t Topics) base() string {
	if t.Base == "" {
		return defaultBaseTopic
	}
	return t.Base
}

// SystemStatus returns the topic carrying client online/offline state.
//
// Example: qtics/system/status
func (t Topics) SystemStatus() string {
	return t.base() + "/system/status"
}

// ExperimentStatus returns the retained-status topic for one experiment.
//
// Example: qtics/experiment/s21_sweep/status
func (t Topics) ExperimentStatus(experiment string) string {
	return fmt.Sprintf("%s/experiment/%s/status", t.base(), experiment)
}

// MonitorSample returns the live-sample topic for one monitored quantity.
//
// Example: qtics/monitor/cryostat/mc_temperature
func (t Topics) MonitorSample(monitor, name string) string {
	return fmt.Sprintf("%s/monitor/%s/%s", t.base(), monitor, name)
}
