// Package container provides reference implementations of the Container and
// Object contracts, used by the CLI and the test suites. A host filesystem
// embedding the policy engine supplies its own implementations.
package container

import (
	"errors"

	"github.com/google/uuid"

	"github.com/deviceops/go-fscrypt/internal/interfaces"
	"github.com/deviceops/go-fscrypt/internal/types"
)

// ErrReadOnly is returned by BeginWrite on a read-only container.
var ErrReadOnly = errors.New("container is read-only")

// Config configures a Container.
type Config struct {
	// Store is the container's context storage collaborator.
	Store interfaces.ContextStore

	// HardwareCapable marks the backing device as supporting the inline
	// hardware encryption path.
	HardwareCapable bool

	// ReadOnly refuses write access for the container's lifetime.
	ReadOnly bool
}

// Container is an in-memory filesystem instance.
type Container struct {
	id              uuid.UUID
	store           interfaces.ContextStore
	hardwareCapable bool
	readOnly        bool
}

// Ensure interface compliance
var _ interfaces.Container = (*Container)(nil)

// New creates a container with a fresh identity.
func New(config Config) *Container {
	return &Container{
		id:              uuid.New(),
		store:           config.Store,
		hardwareCapable: config.HardwareCapable,
		readOnly:        config.ReadOnly,
	}
}

// ID identifies the container.
func (c *Container) ID() uuid.UUID {
	return c.id
}

// IsHardwareCryptoCapable reports inline hardware encryption support.
func (c *Container) IsHardwareCryptoCapable() bool {
	return c.hardwareCapable
}

// ContextStore returns the container's context storage collaborator.
func (c *Container) ContextStore() interfaces.ContextStore {
	return c.store
}

// BeginWrite obtains a writable-mount guarantee.
func (c *Container) BeginWrite() (func(), error) {
	if c.readOnly {
		return nil, ErrReadOnly
	}
	return func() {}, nil
}

// Node is a filesystem object inside a Container.
type Node struct {
	id        uint64
	kind      types.ObjectKind
	container *Container
	dead      bool
}

// Ensure interface compliance
var _ interfaces.Object = (*Node)(nil)

// NewNode creates an object of the given kind inside the container.
func NewNode(c *Container, id uint64, kind types.ObjectKind) *Node {
	return &Node{
		id:        id,
		kind:      kind,
		container: c,
	}
}

// ID is the object's numeric identifier.
func (n *Node) ID() uint64 {
	return n.id
}

// Kind classifies the object.
func (n *Node) Kind() types.ObjectKind {
	return n.kind
}

// Container returns the owning container.
func (n *Node) Container() interfaces.Container {
	return n.container
}

// IsEncrypted reports whether the object carries an encryption context.
func (n *Node) IsEncrypted() bool {
	_, err := n.container.store.GetContext(n, nil)
	return err == nil
}

// IsDeadDirectory reports whether the directory has been removed.
func (n *Node) IsDeadDirectory() bool {
	return n.dead
}

// MarkDead flags the directory as removed.
func (n *Node) MarkDead() {
	n.dead = true
}
