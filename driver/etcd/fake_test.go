package etcd_test

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	pb "go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	etcd "go.etcd.io/etcd/client/v3"
)

var (
	errUnavailable     = errors.New("etcdserver: unavailable")
	errUnsupportedCmp  = errors.New("unsupported compare")
	errDuplicateTxnKey = errors.New("etcdserver: duplicate key given in txn request")
	errTooManyOps      = errors.New("etcdserver: too many operations in txn request")
)

// fakeKV is an in-memory etcd keyspace supporting the requests of the
// driver: ranges with limits, puts and mod revision compares.
type fakeKV struct {
	mu       sync.Mutex
	data     map[string]*mvccpb.KeyValue
	revision int64

	failGets  error
	failTxns  error
	conflicts int
	txns      int
	maxOps    int
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]*mvccpb.KeyValue{}, revision: 1} //nolint:exhaustruct
}

func (f *fakeKV) Get(_ context.Context, key string, opts ...etcd.OpOption) (*etcd.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failGets != nil {
		return nil, f.failGets
	}

	op := etcd.OpGet(key, opts...)

	keys := make([]string, 0)

	for k := range f.data {
		switch end := op.RangeBytes(); {
		case end == nil && k == key:
			keys = append(keys, k)
		case end != nil && k >= key && bytes.Compare([]byte(k), end) < 0:
			keys = append(keys, k)
		}
	}

	sort.Strings(keys)

	more := false
	if limit := op.Limit(); limit > 0 && int64(len(keys)) > limit {
		keys = keys[:limit]
		more = true
	}

	kvs := make([]*mvccpb.KeyValue, 0, len(keys))
	for _, k := range keys {
		kv := f.data[k]
		kvs = append(kvs, &mvccpb.KeyValue{ //nolint:exhaustruct
			Key:            kv.Key,
			Value:          kv.Value,
			CreateRevision: kv.CreateRevision,
			ModRevision:    kv.ModRevision,
			Version:        kv.Version,
		})
	}

	return &etcd.GetResponse{ //nolint:exhaustruct
		Header: &pb.ResponseHeader{Revision: f.revision}, //nolint:exhaustruct
		Kvs:    kvs,
		More:   more,
		Count:  int64(len(kvs)),
	}, nil
}

func (f *fakeKV) Txn(_ context.Context) etcd.Txn {
	return &fakeTxn{kv: f, cmps: nil, then: nil, els: nil}
}

type fakeTxn struct {
	kv   *fakeKV
	cmps []etcd.Cmp
	then []etcd.Op
	els  []etcd.Op
}

func (t *fakeTxn) If(cs ...etcd.Cmp) etcd.Txn {
	t.cmps = append(t.cmps, cs...)
	return t
}

func (t *fakeTxn) Then(ops ...etcd.Op) etcd.Txn {
	t.then = append(t.then, ops...)
	return t
}

func (t *fakeTxn) Else(ops ...etcd.Op) etcd.Txn {
	t.els = append(t.els, ops...)
	return t
}

func (t *fakeTxn) Commit() (*etcd.TxnResponse, error) {
	f := t.kv

	f.mu.Lock()
	defer f.mu.Unlock()

	f.txns++

	if f.failTxns != nil {
		return nil, f.failTxns
	}

	succeeded := true

	for i := range t.cmps {
		ok, err := f.compare(&t.cmps[i])
		if err != nil {
			return nil, err
		}

		succeeded = succeeded && ok
	}

	if len(t.cmps) > 0 && f.conflicts > 0 {
		f.conflicts--
		succeeded = false
	}

	ops := t.then
	if !succeeded {
		ops = t.els
	}

	if f.maxOps > 0 && len(ops) > f.maxOps {
		return nil, errTooManyOps
	}

	seen := map[string]bool{}

	for _, op := range ops {
		if seen[string(op.KeyBytes())] {
			return nil, errDuplicateTxnKey
		}

		seen[string(op.KeyBytes())] = true
	}

	if len(ops) > 0 {
		f.revision++
	}

	for _, op := range ops {
		key := string(op.KeyBytes())

		kv, ok := f.data[key]
		if !ok {
			kv = &mvccpb.KeyValue{Key: op.KeyBytes(), CreateRevision: f.revision} //nolint:exhaustruct
			f.data[key] = kv
		}

		kv.Value = append([]byte{}, op.ValueBytes()...)
		kv.ModRevision = f.revision
		kv.Version++
	}

	return &etcd.TxnResponse{ //nolint:exhaustruct
		Header:    &pb.ResponseHeader{Revision: f.revision}, //nolint:exhaustruct
		Succeeded: succeeded,
	}, nil
}

func (f *fakeKV) compare(cmp *etcd.Cmp) (bool, error) {
	target, ok := cmp.TargetUnion.(*pb.Compare_ModRevision)
	if !ok || cmp.Result != pb.Compare_EQUAL {
		return false, errUnsupportedCmp
	}

	var current int64
	if kv, ok := f.data[string(cmp.KeyBytes())]; ok {
		current = kv.ModRevision
	}

	return current == target.ModRevision, nil
}

func (f *fakeKV) set(fn func(f *fakeKV)) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn(f)
}

func (f *fakeKV) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.data))
	for k := range f.data {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
