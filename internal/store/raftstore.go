package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/raft"
	"github.com/heysubinoy/minidis/pkg/kv"
)

const defaultApplyTimeout = 3 * time.Second

// RaftConfig configures a RaftStore.
type RaftConfig struct {
	NodeID       string
	ApplyTimeout time.Duration
	Logger       hclog.Logger

	// Optional overrides of the raft timers; zero keeps the library default.
	HeartbeatTimeout   time.Duration
	ElectionTimeout    time.Duration
	LeaderLeaseTimeout time.Duration
	CommitTimeout      time.Duration
}

// raftCommand represents a write operation applied via Raft.
type raftCommand struct {
	Op    string `json:"op"` // "set", "delete" or "flush"
	Key   string `json:"key,omitempty"`
	Value string `json:"value,omitempty"`
}

type applyResult struct {
	removed bool
	err     error
}

// RaftStore serializes every write through a single-node raft log and applies
// it to a MemStore from the FSM apply loop. Log, stable and snapshot stores as
// well as the transport are in memory, so nothing leaves the process.
// Reads are served from the local MemStore.
type RaftStore struct {
	store        *MemStore
	raft         *raft.Raft
	applyTimeout time.Duration
}

// Compile-time check to ensure RaftStore implements kv.Store.
var _ kv.Store = (*RaftStore)(nil)

// NewRaftStore starts a raft node, bootstraps it as a one-member cluster and
// blocks until it has become leader or ctx is done.
func NewRaftStore(ctx context.Context, cfg RaftConfig) (*RaftStore, error) {
	if cfg.NodeID == "" {
		return nil, errors.New("raft node id is required")
	}
	if cfg.ApplyTimeout <= 0 {
		cfg.ApplyTimeout = defaultApplyTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	rc := raft.DefaultConfig()
	rc.LocalID = raft.ServerID(cfg.NodeID)
	rc.Logger = cfg.Logger
	if cfg.HeartbeatTimeout > 0 {
		rc.HeartbeatTimeout = cfg.HeartbeatTimeout
	}
	if cfg.ElectionTimeout > 0 {
		rc.ElectionTimeout = cfg.ElectionTimeout
	}
	if cfg.LeaderLeaseTimeout > 0 {
		rc.LeaderLeaseTimeout = cfg.LeaderLeaseTimeout
	}
	if cfg.CommitTimeout > 0 {
		rc.CommitTimeout = cfg.CommitTimeout
	}

	mem := NewMemStore()
	addr, transport := raft.NewInmemTransport(raft.ServerAddress(cfg.NodeID))
	logStore := raft.NewInmemStore()

	r, err := raft.NewRaft(rc, &fsm{store: mem}, logStore, logStore, raft.NewInmemSnapshotStore(), transport)
	if err != nil {
		return nil, fmt.Errorf("create raft: %w", err)
	}

	configuration := raft.Configuration{
		Servers: []raft.Server{
			{
				ID:      rc.LocalID,
				Address: addr,
			},
		},
	}
	if err := r.BootstrapCluster(configuration).Error(); err != nil && !errors.Is(err, raft.ErrCantBootstrap) {
		r.Shutdown()
		return nil, fmt.Errorf("bootstrap cluster: %w", err)
	}

	rs := &RaftStore{store: mem, raft: r, applyTimeout: cfg.ApplyTimeout}
	if err := rs.waitForLeader(ctx); err != nil {
		r.Shutdown()
		return nil, err
	}
	return rs, nil
}

func (rs *RaftStore) waitForLeader(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if rs.raft.State() == raft.Leader {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("wait for raft leadership: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

// GetRaft returns the underlying raft.Raft pointer.
func (rs *RaftStore) GetRaft() *raft.Raft {
	return rs.raft
}

// Close shuts the raft node down.
func (rs *RaftStore) Close() error {
	return rs.raft.Shutdown().Error()
}

// Set submits a set command to Raft.
func (rs *RaftStore) Set(key, value string) error {
	_, err := rs.apply(raftCommand{Op: "set", Key: key, Value: value})
	return err
}

// Delete submits a delete command to Raft.
func (rs *RaftStore) Delete(key string) (bool, error) {
	return rs.apply(raftCommand{Op: "delete", Key: key})
}

// Flush submits a flush command to Raft.
func (rs *RaftStore) Flush() error {
	_, err := rs.apply(raftCommand{Op: "flush"})
	return err
}

// Get reads directly from the local store.
func (rs *RaftStore) Get(key string) (string, bool, error) {
	return rs.store.Get(key)
}

// Exists reads directly from the local store.
func (rs *RaftStore) Exists(key string) (bool, error) {
	return rs.store.Exists(key)
}

// Keys reads directly from the local store.
func (rs *RaftStore) Keys() ([]string, error) {
	return rs.store.Keys()
}

// Size reads directly from the local store.
func (rs *RaftStore) Size() (int, error) {
	return rs.store.Size()
}

func (rs *RaftStore) apply(cmd raftCommand) (bool, error) {
	data, err := json.Marshal(cmd)
	if err != nil {
		return false, fmt.Errorf("marshal command: %w", err)
	}

	f := rs.raft.Apply(data, rs.applyTimeout)
	if err := f.Error(); err != nil {
		return false, fmt.Errorf("%s: %w: raft apply: %v", cmd.Op, kv.ErrLockAcquisition, err)
	}

	res, ok := f.Response().(applyResult)
	if !ok {
		return false, fmt.Errorf("%s: unexpected apply response %T", cmd.Op, f.Response())
	}
	return res.removed, res.err
}

// fsm applies committed raft log entries to a MemStore.
type fsm struct {
	store *MemStore
}

// Apply applies a Raft log entry to the local store.
func (f *fsm) Apply(log *raft.Log) interface{} {
	var cmd raftCommand
	if err := json.Unmarshal(log.Data, &cmd); err != nil {
		return applyResult{err: fmt.Errorf("unmarshal command: %w", err)}
	}

	switch cmd.Op {
	case "set":
		return applyResult{err: f.store.Set(cmd.Key, cmd.Value)}
	case "delete":
		removed, err := f.store.Delete(cmd.Key)
		return applyResult{removed: removed, err: err}
	case "flush":
		return applyResult{err: f.store.Flush()}
	default:
		return applyResult{err: fmt.Errorf("unknown raft op %q", cmd.Op)}
	}
}

func (f *fsm) Snapshot() (raft.FSMSnapshot, error) {
	data, err := f.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return &snapshot{Data: data}, nil
}

func (f *fsm) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	var snap snapshot
	if err := json.NewDecoder(rc).Decode(&snap); err != nil {
		return fmt.Errorf("decode snapshot: %w", err)
	}
	return f.store.Restore(snap.Data)
}

type snapshot struct {
	Data map[string]string `json:"data"`
}

func (s *snapshot) Persist(sink raft.SnapshotSink) error {
	data, err := json.Marshal(s)
	if err != nil {
		sink.Cancel()
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if _, err := sink.Write(data); err != nil {
		sink.Cancel()
		return fmt.Errorf("write snapshot: %w", err)
	}

	return sink.Close()
}

func (s *snapshot) Release() {}
