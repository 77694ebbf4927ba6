package ledgergrp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
)

func TestSubscription(t *testing.T) {
	me := address.MakeV2("me")
	other := address.MakeV2("other")

	mine := state.TransactionEvent{Transaction: database.Transaction{From: database.StrPtr(other), To: me, Value: 1}}
	theirs := state.TransactionEvent{Transaction: database.Transaction{From: database.StrPtr(other), To: other, Value: 1}}
	block := state.BlockEvent{Block: database.Block{Height: 2, Address: other}}
	myName := state.NameEvent{Name: database.Name{Name: "test", Owner: other}, Action: state.NameTransfer, Previous: me}

	t.Run("defaults", func(t *testing.T) {
		sub, err := newSubscription("", me)
		require.NoError(t, err)

		require.True(t, sub.accept(mine))
		require.False(t, sub.accept(theirs))
		require.True(t, sub.accept(block))
		require.False(t, sub.accept(myName))
	})

	t.Run("own levels need an address", func(t *testing.T) {
		sub, err := newSubscription("ownTransactions,ownNames", "")
		require.NoError(t, err)

		require.False(t, sub.accept(mine))
		require.False(t, sub.accept(myName))
	})

	t.Run("own names include the previous owner", func(t *testing.T) {
		sub, err := newSubscription("ownNames", me)
		require.NoError(t, err)

		require.True(t, sub.accept(myName))
		require.False(t, sub.accept(block))
	})

	t.Run("everything", func(t *testing.T) {
		sub, err := newSubscription("blocks, transactions, names", "")
		require.NoError(t, err)

		for _, evt := range []state.Event{mine, theirs, block, myName} {
			require.True(t, sub.accept(evt))
		}
	})

	t.Run("unknown level", func(t *testing.T) {
		_, err := newSubscription("blocks,motd", me)
		require.Equal(t, "invalid_parameter", state.ErrorCode(err))
	})
}

func TestTransactionType(t *testing.T) {
	from := database.StrPtr(address.MakeV2("a"))

	require.Equal(t, typeMined, transactionType(database.Transaction{To: "k0000000000"}))
	require.Equal(t, typeNamePurchase, transactionType(database.Transaction{From: from, To: database.ToName, Name: "test"}))
	require.Equal(t, typeNameRecord, transactionType(database.Transaction{From: from, To: database.ToRecord, Name: "test"}))
	require.Equal(t, typeNameTransfer, transactionType(database.Transaction{From: from, To: "k0000000000", Name: "test"}))
	require.Equal(t, typeTransfer, transactionType(database.Transaction{From: from, To: "k0000000000", SentName: "test"}))
}
