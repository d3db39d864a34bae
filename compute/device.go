// Package compute abstracts the device that runs the simulation kernels.
// A Device owns the agent and trail resources, keeps every kernel bound to
// the current allocation, and executes dispatches in submission order.
package compute

import (
	"errors"

	"github.com/pthm-cable/physarum/systems"
)

// Kernel names one entry point of the simulation program.
type Kernel int

const (
	InitParticles Kernel = iota
	MoveParticles
	InitTrail
	StepTrail
	// Init seeds agents and clears the field from a single agent-sized
	// dispatch. Used by the compact (variant 2) program.
	Init

	// NumKernels is the number of entry points.
	NumKernels
)

var kernelNames = [NumKernels]string{
	InitParticles: "InitParticles",
	MoveParticles: "MoveParticles",
	InitTrail:     "InitTrail",
	StepTrail:     "StepTrail",
	Init:          "Init",
}

func (k Kernel) String() string {
	if k < 0 || k >= NumKernels {
		return "Kernel(?)"
	}
	return kernelNames[k]
}

// Tiled reports whether the kernel runs on 2D field tiles rather than 1D agent groups.
func (k Kernel) Tiled() bool {
	return k == InitTrail || k == StepTrail
}

// UsesAgents reports whether the kernel binds the agent buffer.
func (k Kernel) UsesAgents() bool {
	return k == InitParticles || k == MoveParticles || k == Init
}

// UsesTrail reports whether the kernel binds the trail field.
func (k Kernel) UsesTrail() bool {
	return k != InitParticles
}

var (
	// ErrNoDevice is returned when no compute device is available.
	ErrNoDevice = errors.New("compute: no device")
	// ErrNotProvisioned is returned when a kernel is dispatched before its
	// resources exist.
	ErrNotProvisioned = errors.New("compute: resource not provisioned")
	// ErrKernelUnbound is returned for kernels the device does not implement.
	ErrKernelUnbound = errors.New("compute: kernel not bound")
	// ErrDispatchLimit is returned when a dispatch exceeds MaxGroupsPerDimension.
	ErrDispatchLimit = errors.New("compute: dispatch exceeds group limit")
	// ErrInvalidSize is returned when a resource is requested with a size below one.
	ErrInvalidSize = errors.New("compute: invalid resource size")
)

// Device executes kernels against device-owned resources. Dispatches are
// ordered: the writes of one are visible to the next.
type Device interface {
	// Name identifies the backend in logs.
	Name() string
	// GroupSize is the 1D group size used for agent kernels.
	GroupSize() int

	// ProvisionAgents releases the current agent buffer, allocates count
	// agents and rebinds every dependent kernel as one operation.
	ProvisionAgents(count int) error
	// ProvisionTrail does the same for a dim x dim field.
	ProvisionTrail(dim int) error

	// SetParams uploads the uniform block for subsequent dispatches.
	SetParams(p *systems.Params)
	// Dispatch runs kernel k over groupsX x groupsY groups.
	Dispatch(k Kernel, groupsX, groupsY int) error

	AgentCount() int
	TrailDimension() int

	// ReadTrail copies the current field into dst, growing it as needed.
	ReadTrail(dst []float32) ([]float32, error)
	// ReadAgents copies the agent buffer into dst, growing it as needed.
	ReadAgents(dst []systems.Agent) ([]systems.Agent, error)

	// WriteTrail overwrites the current field. len(src) must be dim*dim.
	WriteTrail(src []float32) error
	// WriteAgents overwrites the agent buffer. len(src) must match AgentCount.
	WriteAgents(src []systems.Agent) error

	// Release frees every resource. The device may be provisioned again.
	Release()
}
