// Package monitoring turns a running coordinator into an HTTP server, so
// that the simulation can be inspected and controlled from outside.
package monitoring

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"strings"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/sarchlab/devs/devs"
	"github.com/sarchlab/devs/sim/timing"
)

// Monitor can turn a simulation into a server and allows external monitoring
// controlling of the simulation.
type Monitor struct {
	coordinator *devs.Coordinator
	portNumber  int
	openBrowser bool
	url         string
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	return &Monitor{}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes the monitor open the API root in a browser once the
// server starts.
func (m *Monitor) WithBrowser() *Monitor {
	m.openBrowser = true
	return m
}

// RegisterCoordinator registers the coordinator that runs the simulation.
func (m *Monitor) RegisterCoordinator(c *devs.Coordinator) {
	m.coordinator = c
}

// URL returns the address of the server. It is empty before StartServer.
func (m *Monitor) URL() string {
	return m.url
}

// Router returns the routes of the monitoring API.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pauseCoordinator)
	r.HandleFunc("/api/continue", m.continueCoordinator)
	r.HandleFunc("/api/now", m.now)
	r.HandleFunc("/api/progress", m.progress)
	r.HandleFunc("/api/list_models", m.listModels)
	r.HandleFunc("/api/model/{path}", m.modelDetails)
	r.HandleFunc("/api/field/{json}", m.fieldValue)
	r.HandleFunc("/api/views", m.listViews)
	r.HandleFunc("/api/stream_errors", m.listStreamErrors)
	r.HandleFunc("/api/resource", m.listResources)
	r.HandleFunc("/api/profile", m.collectProfile)

	return r
}

// StartServer starts the monitor as a web server with a custom port if wanted.
func (m *Monitor) StartServer() {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	m.url = fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", m.url)

	router := m.Router()

	go func() {
		err := http.Serve(listener, router)
		dieOnErr(err)
	}()

	if m.openBrowser {
		err = browser.OpenURL(m.url + "/api/now")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open browser: %s\n", err)
		}
	}
}

func (m *Monitor) pauseCoordinator(w http.ResponseWriter, _ *http.Request) {
	m.coordinator.Pause()
	_, err := w.Write(nil)
	dieOnErr(err)
}

func (m *Monitor) continueCoordinator(w http.ResponseWriter, _ *http.Request) {
	m.coordinator.Continue()
	_, err := w.Write(nil)
	dieOnErr(err)
}

type nowRsp struct {
	Now    string `json:"now"`
	Next   string `json:"next"`
	State  string `json:"state"`
	Paused bool   `json:"paused"`
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	rsp := nowRsp{Paused: m.coordinator.IsPaused()}

	m.coordinator.Inspect(func() {
		rsp.Now = m.coordinator.Now().String()
		rsp.Next = m.coordinator.NextTime().String()
		rsp.State = m.coordinator.State().String()
	})

	writeJSON(w, rsp)
}

type progressRsp struct {
	Begin   string   `json:"begin"`
	End     string   `json:"end"`
	Now     string   `json:"now"`
	Percent *float64 `json:"percent,omitempty"`
}

func (m *Monitor) progress(w http.ResponseWriter, _ *http.Request) {
	var begin, end, now timing.VTime

	m.coordinator.Inspect(func() {
		begin = m.coordinator.BeginTime()
		end = m.coordinator.EndTime()
		now = m.coordinator.Now()
	})

	rsp := progressRsp{
		Begin: begin.String(),
		End:   end.String(),
		Now:   now.String(),
	}

	if !end.IsInfinity() && end > begin {
		percent := float64(now-begin) / float64(end-begin) * 100
		rsp.Percent = &percent
	}

	writeJSON(w, rsp)
}

func (m *Monitor) listModels(w http.ResponseWriter, _ *http.Request) {
	paths := []string{}

	m.coordinator.Inspect(func() {
		for _, sim := range m.coordinator.Simulators() {
			paths = append(paths, sim.Path())
		}
	})

	writeJSON(w, paths)
}

func (m *Monitor) modelDetails(w http.ResponseWriter, r *http.Request) {
	path := mux.Vars(r)["path"]

	m.coordinator.Inspect(func() {
		sim := m.findSimulatorOr404(w, path)
		if sim == nil {
			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(sim.Dynamics())
		serializer.SetMaxDepth(1)
		err := serializer.Serialize(w)

		dieOnErr(err)
	})
}

type fieldReq struct {
	ModelPath string `json:"model_path,omitempty"`
	FieldName string `json:"field_name,omitempty"`
}

func (m *Monitor) fieldValue(w http.ResponseWriter, r *http.Request) {
	jsonString := mux.Vars(r)["json"]
	req := fieldReq{}

	err := json.Unmarshal([]byte(jsonString), &req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	fields := strings.Split(req.FieldName, ".")

	m.coordinator.Inspect(func() {
		sim := m.findSimulatorOr404(w, req.ModelPath)
		if sim == nil {
			return
		}

		serializer := goseth.NewSerializer()
		serializer.SetRoot(sim.Dynamics())
		serializer.SetMaxDepth(1)

		err = serializer.SetEntryPoint(fields)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = serializer.Serialize(w)
		dieOnErr(err)
	})
}

type viewRsp struct {
	Name        string   `json:"name"`
	Kind        string   `json:"kind"`
	Step        string   `json:"step,omitempty"`
	Observables []string `json:"observables"`
}

func (m *Monitor) listViews(w http.ResponseWriter, _ *http.Request) {
	views := []viewRsp{}

	m.coordinator.Inspect(func() {
		for _, v := range m.coordinator.Views() {
			rsp := viewRsp{
				Name:        v.Name(),
				Kind:        v.Kind().String(),
				Observables: v.Observables(),
			}

			if v.Kind() == devs.TimedView {
				rsp.Step = v.Step().String()
			}

			views = append(views, rsp)
		}
	})

	writeJSON(w, views)
}

type streamErrorRsp struct {
	View  string `json:"view"`
	Model string `json:"model"`
	Port  string `json:"port"`
	Time  string `json:"time"`
	Error string `json:"error"`
}

func (m *Monitor) listStreamErrors(w http.ResponseWriter, _ *http.Request) {
	errs := []streamErrorRsp{}

	m.coordinator.Inspect(func() {
		for _, e := range m.coordinator.StreamErrors() {
			errs = append(errs, streamErrorRsp{
				View:  e.View,
				Model: e.Model,
				Port:  e.Port,
				Time:  e.Time.String(),
				Error: e.Err.Error(),
			})
		}
	})

	writeJSON(w, errs)
}

func (m *Monitor) findSimulatorOr404(
	w http.ResponseWriter,
	path string,
) *devs.Simulator {
	sim, found := m.coordinator.Simulator(path)
	if !found {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("Model not found"))
		dieOnErr(err)

		return nil
	}

	return sim
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	process, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := process.CPUPercent()
	dieOnErr(err)

	memorySize, err := process.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	writeJSON(w, rsp)
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(time.Second)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	dieOnErr(err)

	writeJSON(w, prof)
}

func writeJSON(w http.ResponseWriter, v any) {
	bytes, err := json.Marshal(v)
	dieOnErr(err)

	w.Header().Set("Content-Type", "application/json")
	_, err = w.Write(bytes)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		log.Panic(err)
	}
}
