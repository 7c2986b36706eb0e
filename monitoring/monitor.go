// Package monitoring turns a running simulation into an HTTP server that can
// be inspected and paused from outside.
package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sarchlab/eventsim/idgen"
	"github.com/sarchlab/eventsim/timing"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"
	"go.uber.org/zap"
)

// Monitor can turn a simulation into a server and allows external monitoring
// and controlling of the simulation.
type Monitor struct {
	engine          timing.Engine
	metrics         *Metrics
	registry        *prometheus.Registry
	logger          *zap.Logger
	portNumber      int
	profileDuration time.Duration

	modelsLock sync.Mutex
	models     map[string]any

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar

	server   *http.Server
	listener net.Listener
}

// NewMonitor creates a new Monitor
func NewMonitor() *Monitor {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Monitor{
		registry:        registry,
		logger:          zap.NewNop(),
		profileDuration: time.Second,
		models:          make(map[string]any),
	}
}

// WithPortNumber sets the port number of the monitor. Ports at or below 1000
// are not allowed; a random port is used instead.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber != 0 && portNumber <= 1000 {
		m.logger.Warn("port number not allowed, using a random port",
			zap.Int("port", portNumber))

		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithLogger sets the logger of the monitor.
func (m *Monitor) WithLogger(logger *zap.Logger) *Monitor {
	m.logger = logger
	return m
}

// WithProfileDuration sets how long /api/profile samples the CPU.
func (m *Monitor) WithProfileDuration(d time.Duration) *Monitor {
	m.profileDuration = d
	return m
}

// RegisterEngine registers the engine that is used in the simulation and
// attaches the metrics hook to it.
func (m *Monitor) RegisterEngine(e timing.Engine) {
	m.engine = e
	m.metrics = NewMetrics(m.registry, e)
	e.AcceptHook(m.metrics)
}

// RegisterModel makes a model object inspectable under /api/model/{name}.
func (m *Monitor) RegisterModel(name string, model any) {
	m.modelsLock.Lock()
	defer m.modelsLock.Unlock()

	if _, exists := m.models[name]; exists {
		panic("model " + name + " already registered")
	}

	m.models[name] = model
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        idgen.UniqueName("bar_"),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar to be shown on the webpage.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// Router returns the HTTP routes served by the monitor.
func (m *Monitor) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/now", m.now).Methods(http.MethodGet)
	r.HandleFunc("/api/status", m.status).Methods(http.MethodGet)
	r.HandleFunc("/api/pause", m.pauseEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/continue", m.continueEngine).Methods(http.MethodPost)
	r.HandleFunc("/api/progress", m.listProgressBars).Methods(http.MethodGet)
	r.HandleFunc("/api/resource", m.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", m.collectProfile).Methods(http.MethodGet)
	r.HandleFunc("/api/model", m.listModels).Methods(http.MethodGet)
	r.HandleFunc("/api/model/{name}", m.modelDetails).Methods(http.MethodGet)
	r.Handle("/metrics",
		promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))

	return r
}

// StartServer starts serving the monitor in the background and returns the
// URL it listens on.
func (m *Monitor) StartServer() (string, error) {
	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", fmt.Errorf("monitoring: listen on %s: %w", actualPort, err)
	}

	m.listener = listener
	m.server = &http.Server{
		Handler:           m.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)

	fmt.Fprintf(os.Stderr, "Monitoring simulation with %s\n", url)

	go func() {
		err := m.server.Serve(listener)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error("monitor server stopped", zap.Error(err))
		}
	}()

	return url, nil
}

// OpenBrowser opens url in the default browser.
func (m *Monitor) OpenBrowser(url string) error {
	return browser.OpenURL(url)
}

// Stop shuts the server down.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.server == nil {
		return nil
	}

	return m.server.Shutdown(ctx)
}

func (m *Monitor) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		m.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (m *Monitor) requireEngine(w http.ResponseWriter) bool {
	if m.engine == nil {
		http.Error(w, "no engine registered", http.StatusServiceUnavailable)
		return false
	}

	return true
}

func (m *Monitor) now(w http.ResponseWriter, _ *http.Request) {
	if !m.requireEngine(w) {
		return
	}

	m.writeJSON(w, map[string]float64{"now": m.engine.CurrentTime()})
}

type statusRsp struct {
	State      string  `json:"state"`
	Now        float64 `json:"now"`
	Pending    int     `json:"pending"`
	Dispatched uint64  `json:"dispatched"`
}

func (m *Monitor) status(w http.ResponseWriter, _ *http.Request) {
	if !m.requireEngine(w) {
		return
	}

	m.writeJSON(w, statusRsp{
		State:      m.engine.State().String(),
		Now:        m.engine.CurrentTime(),
		Pending:    m.engine.Pending(),
		Dispatched: m.engine.Dispatched(),
	})
}

func (m *Monitor) pauseEngine(w http.ResponseWriter, _ *http.Request) {
	if !m.requireEngine(w) {
		return
	}

	m.engine.Pause()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) continueEngine(w http.ResponseWriter, _ *http.Request) {
	if !m.requireEngine(w) {
		return
	}

	m.engine.Continue()
	w.WriteHeader(http.StatusNoContent)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	bars := make([]progressBarSnapshot, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		bars = append(bars, b.snapshot())
	}
	m.progressBarsLock.Unlock()

	m.writeJSON(w, bars)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

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

	memoryInfo, err := proc.MemoryInfo()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

type functionSample struct {
	Function string `json:"function"`
	Flat     int64  `json:"flat"`
}

func (m *Monitor) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	time.Sleep(m.profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	m.writeJSON(w, topFunctions(prof, 20))
}

// topFunctions sums the first sample value of every sample by the leaf
// function and returns the n largest.
func topFunctions(prof *profile.Profile, n int) []functionSample {
	flat := make(map[string]int64)

	for _, s := range prof.Sample {
		if len(s.Location) == 0 || len(s.Value) == 0 {
			continue
		}

		lines := s.Location[0].Line
		if len(lines) == 0 || lines[0].Function == nil {
			continue
		}

		flat[lines[0].Function.Name] += s.Value[0]
	}

	samples := make([]functionSample, 0, len(flat))
	for name, v := range flat {
		samples = append(samples, functionSample{Function: name, Flat: v})
	}

	sort.Slice(samples, func(i, j int) bool {
		if samples[i].Flat != samples[j].Flat {
			return samples[i].Flat > samples[j].Flat
		}

		return samples[i].Function < samples[j].Function
	})

	if len(samples) > n {
		samples = samples[:n]
	}

	return samples
}

func (m *Monitor) listModels(w http.ResponseWriter, _ *http.Request) {
	m.modelsLock.Lock()
	names := make([]string, 0, len(m.models))
	for name := range m.models {
		names = append(names, name)
	}
	m.modelsLock.Unlock()

	sort.Strings(names)

	m.writeJSON(w, names)
}

func (m *Monitor) modelDetails(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	m.modelsLock.Lock()
	model, ok := m.models[name]
	m.modelsLock.Unlock()

	if !ok {
		http.Error(w, "Model not found", http.StatusNotFound)
		return
	}

	var (
		buf bytes.Buffer
		err error
	)

	serialize := func() {
		serializer := goseth.NewSerializer()
		serializer.SetRoot(model)
		serializer.SetMaxDepth(1)

		err = serializer.Serialize(&buf)
	}

	// Handlers write the model, so it is only read between events.
	if m.engine != nil {
		m.engine.Inspect(serialize)
	} else {
		serialize()
	}

	if err != nil {
		m.logger.Warn("failed to serialize model",
			zap.String("model", name), zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(buf.Bytes())
}
