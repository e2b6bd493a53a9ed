package monitoring

import (
	"encoding/json"
	"net/http"
	"os"

	"github.com/shirou/gopsutil/process"
)

type resourceReport struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemoryRSS  uint64  `json:"memory_rss"`
	MemoryVMS  uint64  `json:"memory_vms"`
}

// listResources reports the CPU and memory use of the simulator
// process itself.
func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	cpuPercent, err := proc.CPUPercent()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	memory, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := resourceReport{
		CPUPercent: cpuPercent,
		MemoryRSS:  memory.RSS,
		MemoryVMS:  memory.VMS,
	}

	err = json.NewEncoder(w).Encode(report)
	dieOnErr(err)
}
