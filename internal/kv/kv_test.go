package kv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestEnv(t *testing.T) *Env {
	t.Helper()
	env, err := Open(t.TempDir(), Options{MaxSize: 1 << 20, MaxNamedMaps: 8})
	require.NoError(t, err)
	t.Cleanup(func() { env.Close() })
	return env
}

func TestPutGetDelete(t *testing.T) {
	env := openTestEnv(t)

	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	m, err := wtxn.OpenMap("accounts", Create)
	require.NoError(t, err)

	require.NoError(t, m.Put([]byte("k1"), []byte("v1"), Overwrite))
	v, err := m.Get([]byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))

	require.NoError(t, m.Delete([]byte("k1")))
	_, err = m.Get([]byte("k1"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, wtxn.Commit())
}

func TestPutNoOverwriteFailsOnExistingKey(t *testing.T) {
	env := openTestEnv(t)
	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	m, err := wtxn.OpenMap("accounts", Create)
	require.NoError(t, err)

	require.NoError(t, m.Put([]byte("k1"), []byte("v1"), NoOverwrite))
	err = m.Put([]byte("k1"), []byte("v2"), NoOverwrite)
	require.ErrorIs(t, err, ErrKeyExists)
	require.NoError(t, wtxn.Abort())
}

func TestAbortDiscardsWrites(t *testing.T) {
	env := openTestEnv(t)

	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	m, err := wtxn.OpenMap("accounts", Create)
	require.NoError(t, err)
	require.NoError(t, m.Put([]byte("k1"), []byte("v1"), Overwrite))
	require.NoError(t, wtxn.Abort())

	rtxn, err := env.ReadTxn()
	require.NoError(t, err)
	defer rtxn.Close()
	m2, err := rtxn.OpenMap("accounts", 0)
	if err == nil {
		_, err = m2.Get([]byte("k1"))
		require.ErrorIs(t, err, ErrNotFound)
	} else {
		require.ErrorIs(t, err, ErrNotFound)
	}
}

func TestDupSortOrderedIteration(t *testing.T) {
	env := openTestEnv(t)
	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	m, err := wtxn.OpenMap("idx", DupSort|DupFixed|Create)
	require.NoError(t, err)

	key := []byte("pubkey-a")
	require.NoError(t, m.Put(key, EncodeUint64(3), Overwrite))
	require.NoError(t, m.Put(key, EncodeUint64(1), Overwrite))
	require.NoError(t, m.Put(key, EncodeUint64(2), Overwrite))

	cur := m.Cursor()
	k, v, err := cur.Seek(key)
	require.NoError(t, err)
	require.Equal(t, key, k)
	require.Equal(t, uint64(1), DecodeUint64(v))

	_, v, err = cur.NextDup()
	require.NoError(t, err)
	require.Equal(t, uint64(2), DecodeUint64(v))

	_, v, err = cur.NextDup()
	require.NoError(t, err)
	require.Equal(t, uint64(3), DecodeUint64(v))

	_, _, err = cur.NextDup()
	require.Error(t, err)

	require.NoError(t, wtxn.Commit())
}

func TestKeyedDupStoresPayloadSeparateFromSortKey(t *testing.T) {
	env := openTestEnv(t)
	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	m, err := wtxn.OpenMap("account_assets", DupSort|Create)
	require.NoError(t, err)

	owner := []byte("owner-1")
	dupKey := []byte("ledger/domain/asset")
	payload := []byte(`{"amount":"42"}`)

	require.NoError(t, m.PutKeyed(owner, dupKey, payload, Overwrite))

	got, err := m.GetKeyed(owner, dupKey)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	_, err = m.GetKeyed(owner, []byte("missing"))
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.DeleteKeyed(owner, dupKey))
	_, err = m.GetKeyed(owner, dupKey)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKeyedDupRejectsNonDupSortMap(t *testing.T) {
	env := openTestEnv(t)
	wtxn, err := env.WriteTxn()
	require.NoError(t, err)
	m, err := wtxn.OpenMap("plain", Create)
	require.NoError(t, err)

	err = m.PutKeyed([]byte("a"), []byte("b"), []byte("c"), Overwrite)
	require.ErrorIs(t, err, ErrNotDupSort)
}

func TestEncodeDecodeUint64RoundTrip(t *testing.T) {
	for _, v := range []uint64{0, 1, 255, 256, 1 << 40, ^uint64(0)} {
		require.Equal(t, v, DecodeUint64(EncodeUint64(v)))
	}
}

func TestEncodeUint64PreservesNumericOrder(t *testing.T) {
	a := EncodeUint64(1)
	b := EncodeUint64(2)
	c := EncodeUint64(1 << 32)
	require.True(t, string(a) < string(b))
	require.True(t, string(b) < string(c))
}
