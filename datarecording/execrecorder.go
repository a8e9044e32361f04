package datarecording

import (
	"os"
	"strings"
	"time"
)

// ExecInfoTable is the table that holds the properties of the run.
const ExecInfoTable = "exec_info"

// ExecInfo is one property of the run.
type ExecInfo struct {
	Property string
	Value    string
}

// execRecorder records when, how and where the program ran.
type execRecorder struct {
	recorder DataRecorder
	entries  []ExecInfo
}

func newExecRecorder(recorder DataRecorder) *execRecorder {
	e := &execRecorder{recorder: recorder}
	e.recorder.CreateTable(ExecInfoTable, ExecInfo{})

	return e
}

// Start records the start time, the command and the working directory.
func (e *execRecorder) Start() {
	e.Add("Start Time", time.Now().Format("2006-01-02 15:04:05.000000000"))
	e.Add("Command", strings.Join(os.Args, " "))

	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}

	e.Add("Working Directory", cwd)
}

// Add records a property.
func (e *execRecorder) Add(property, value string) {
	e.entries = append(e.entries, ExecInfo{Property: property, Value: value})
}

// End writes every property into the recorder along with the end time.
func (e *execRecorder) End() {
	e.Add("End Time", time.Now().Format("2006-01-02 15:04:05.000000000"))

	for _, entry := range e.entries {
		e.recorder.InsertData(ExecInfoTable, entry)
	}

	e.entries = nil
}
