package ledger

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cuemby/ametsuchi/internal/obs/events"
	"github.com/cuemby/ametsuchi/internal/txcodec"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxDBSize = 4 << 20
	cfg.MerkleBlockCapacity = 8
	cfg.MerkleFanout = 4
	return cfg
}

func blobFor(t *testing.T, creator string, cmd txcodec.Command) []byte {
	t.Helper()
	tx := &txcodec.Transaction{Creator: txcodec.PubKey(creator), Command: cmd}
	pre, err := txcodec.EncodeTransaction(tx)
	require.NoError(t, err)
	tx.Hash = txcodec.SHA3Hasher{}.Hash(pre)
	blob, err := txcodec.EncodeTransaction(tx)
	require.NoError(t, err)
	return blob
}

func accountAddBlob(t *testing.T, pubkey string) []byte {
	return blobFor(t, pubkey, txcodec.AccountAdd{Account: txcodec.Account{PubKey: txcodec.PubKey(pubkey)}})
}

func TestNewOpensAtZeroState(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	require.Equal(t, uint64(0), eng.TxTotal())
	require.Equal(t, txcodec.Hash32{}, eng.MerkleRoot())
}

func TestAppendThenCommitPersistsAccount(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	root, err := eng.Append(accountAddBlob(t, "alice"))
	require.NoError(t, err)
	require.NotEqual(t, txcodec.Hash32{}, root)
	require.Equal(t, uint64(1), eng.TxTotal())

	require.NoError(t, eng.Commit())

	acc, err := eng.GetAccount(txcodec.PubKey("alice"), false)
	require.NoError(t, err)
	require.Equal(t, txcodec.PubKey("alice"), acc.PubKey)
}

func TestAppendIsVisibleUncommittedButNotCommittedOnly(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Append(accountAddBlob(t, "alice"))
	require.NoError(t, err)

	_, err = eng.GetAccount(txcodec.PubKey("alice"), true)
	require.NoError(t, err)

	_, err = eng.GetAccount(txcodec.PubKey("alice"), false)
	require.Error(t, err)
}

func TestAppendRejectsMalformedBlobAsInvalidTransaction(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Append([]byte("garbage"))
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, KindInvalidTransaction, lerr.Kind)
}

func TestAppendDuplicateAccountIsInvalidTransactionAndAbortsBatch(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Append(accountAddBlob(t, "alice"))
	require.NoError(t, err)
	require.NoError(t, eng.Commit())

	_, err = eng.Append(accountAddBlob(t, "alice"))
	require.Error(t, err)
	var lerr *Error
	require.ErrorAs(t, err, &lerr)
	require.Equal(t, KindInvalidTransaction, lerr.Kind)

	require.Equal(t, uint64(1), eng.TxTotal())
}

func TestRollbackDiscardsUncommittedAppends(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Append(accountAddBlob(t, "alice"))
	require.NoError(t, err)
	require.Equal(t, uint64(1), eng.TxTotal())

	require.NoError(t, eng.Rollback())
	require.Equal(t, uint64(0), eng.TxTotal())

	_, err = eng.GetAccount(txcodec.PubKey("alice"), true)
	require.Error(t, err)
}

func TestAppendBatchAppliesEveryBlob(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	blobs := [][]byte{accountAddBlob(t, "alice"), accountAddBlob(t, "bob")}
	root, err := eng.AppendBatch(blobs)
	require.NoError(t, err)
	require.NotEqual(t, txcodec.Hash32{}, root)
	require.Equal(t, uint64(2), eng.TxTotal())
}

func TestMerkleRootSurvivesCommitAndReopen(t *testing.T) {
	dir := t.TempDir()
	eng, err := New(dir, testConfig())
	require.NoError(t, err)

	for i := 0; i < 12; i++ {
		_, err := eng.Append(accountAddBlob(t, string(rune('a'+i))))
		require.NoError(t, err)
	}
	require.NoError(t, eng.Commit())
	root := eng.MerkleRoot()
	total := eng.TxTotal()
	require.NoError(t, eng.Close())

	reopened, err := New(dir, testConfig())
	require.NoError(t, err)
	defer reopened.Close()

	require.Equal(t, root, reopened.MerkleRoot())
	require.Equal(t, total, reopened.TxTotal())
}

func TestCloseAbortsUncommittedWork(t *testing.T) {
	dir := t.TempDir()
	eng, err := New(dir, testConfig())
	require.NoError(t, err)

	_, err = eng.Append(accountAddBlob(t, "alice"))
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	reopened, err := New(dir, testConfig())
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, uint64(0), reopened.TxTotal())
}

func TestOperationsAfterCloseFail(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	require.NoError(t, eng.Close())

	_, err = eng.Append(accountAddBlob(t, "alice"))
	require.Error(t, err)

	err = eng.Commit()
	require.Error(t, err)
}

func TestEventsPublishedOnAppendAndCommit(t *testing.T) {
	eng, err := New(t.TempDir(), testConfig())
	require.NoError(t, err)
	defer eng.Close()

	sub := eng.Events().Subscribe()
	defer eng.Events().Unsubscribe(sub)

	_, err = eng.Append(accountAddBlob(t, "alice"))
	require.NoError(t, err)
	evt := <-sub
	require.Equal(t, events.EventAppended, evt.Type)

	require.NoError(t, eng.Commit())
	evt = <-sub
	require.Equal(t, events.EventCommitted, evt.Type)
}
