package api

import "github.com/heysubinoy/minidis/pkg/kv"

// lockedStore fails every call the way a poisoned store does.
type lockedStore struct{}

func (lockedStore) Get(string) (string, bool, error) { return "", false, kv.ErrLockAcquisition }
func (lockedStore) Set(string, string) error         { return kv.ErrLockAcquisition }
func (lockedStore) Delete(string) (bool, error)      { return false, kv.ErrLockAcquisition }
func (lockedStore) Exists(string) (bool, error)      { return false, kv.ErrLockAcquisition }
func (lockedStore) Keys() ([]string, error)          { return nil, kv.ErrLockAcquisition }
func (lockedStore) Flush() error                     { return kv.ErrLockAcquisition }
func (lockedStore) Size() (int, error)               { return 0, kv.ErrLockAcquisition }
