package trace

import (
	"os"
	"path/filepath"
	"syscall"
)

// Usage is a point-in-time resource-usage sample for the recording actor.
type Usage struct {
	CPUTime  uint32 // microseconds of user+system time
	InBlock  uint32 // blocks read
	OutBlock uint32 // blocks written
}

// HostSource identifies the recording actor and samples its resource
// usage. It is the recorder's view of the platform; swapping it out gives
// deterministic records in tests.
type HostSource interface {
	// CPU returns the id of the processing unit recording the event.
	CPU() int32

	// ActorID returns the id of the recording actor.
	ActorID() int32

	// ActorName returns the recording actor's own name, used when a
	// record call supplies no explicit actor label.
	ActorName() string

	// Usage samples the actor's accumulated resource usage. ok is false
	// when sampling is unsafe or meaningless in the current context, in
	// which case the recorder stores zeroes.
	Usage() (u Usage, ok bool)
}

// processHost is the default HostSource: the current OS process.
type processHost struct {
	pid  int32
	name string
}

// NewProcessHost returns a HostSource describing the current process.
// The actor name is the executable's base name. CPU is reported as 0;
// there is no portable per-CPU id, and the column is kept for output
// compatibility.
func NewProcessHost() HostSource {
	name := "unknown"
	if exe, err := os.Executable(); err == nil {
		name = filepath.Base(exe)
	}
	return &processHost{pid: int32(os.Getpid()), name: name}
}

func (h *processHost) CPU() int32        { return 0 }
func (h *processHost) ActorID() int32    { return h.pid }
func (h *processHost) ActorName() string { return h.name }

func (h *processHost) Usage() (Usage, bool) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return Usage{}, false
	}
	micros := int64(ru.Utime.Sec)*1e6 + int64(ru.Utime.Usec) +
		int64(ru.Stime.Sec)*1e6 + int64(ru.Stime.Usec)
	return Usage{
		CPUTime:  uint32(micros),
		InBlock:  uint32(ru.Inblock),
		OutBlock: uint32(ru.Oublock),
	}, true
}

// StaticHost is a fixed-value HostSource for tests and synthetic events.
type StaticHost struct {
	CPUID  int32
	PID    int32
	Name   string
	Sample Usage

	// Unsafe marks usage sampling as unavailable, the way it is for a
	// bootstrap actor or a non-preemptible section; the recorder then
	// zeroes the usage fields.
	Unsafe bool
}

func (h *StaticHost) CPU() int32        { return h.CPUID }
func (h *StaticHost) ActorID() int32    { return h.PID }
func (h *StaticHost) ActorName() string { return h.Name }

func (h *StaticHost) Usage() (Usage, bool) {
	if h.Unsafe {
		return Usage{}, false
	}
	return h.Sample, true
}
