package ledgergrp

import (
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
	"github.com/ardanlabs/ledger/foundation/ledger/state"
)

// Set of transaction types reported to clients.
const (
	typeMined        = "mined"
	typeTransfer     = "transfer"
	typeNamePurchase = "name_purchase"
	typeNameRecord   = "name_a_record"
	typeNameTransfer = "name_transfer"
)

// =============================================================================

type authRequest struct {
	PrivateKey string `json:"privatekey" validate:"required"`

	// From selects a legacy address derived from the same key.
	From string `json:"from,omitempty"`
}

type transferRequest struct {
	authRequest
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	Metadata  string `json:"metadata,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

type nameTransferRequest struct {
	authRequest
	Address string `json:"address" validate:"required,address"`
}

type nameRecordRequest struct {
	authRequest
	Record string `json:"a"`
}

type submitRequest struct {
	Address string `json:"address" validate:"required"`
	Nonce   string `json:"nonce" validate:"required"`
}

type switchRequest struct {
	Enabled *bool `json:"enabled" validate:"required"`
}

// =============================================================================

type appAddress struct {
	Address   string    `json:"address"`
	Balance   uint64    `json:"balance"`
	TotalIn   uint64    `json:"totalin"`
	TotalOut  uint64    `json:"totalout"`
	FirstSeen time.Time `json:"firstseen"`
}

func toAppAddress(a database.Address) appAddress {
	return appAddress{
		Address:   a.Address,
		Balance:   a.Balance,
		TotalIn:   a.TotalIn,
		TotalOut:  a.TotalOut,
		FirstSeen: a.FirstSeen,
	}
}

type appTransaction struct {
	ID           uint64    `json:"id"`
	From         *string   `json:"from"`
	To           string    `json:"to"`
	Value        uint64    `json:"value"`
	Time         time.Time `json:"time"`
	Name         string    `json:"name,omitempty"`
	Metadata     string    `json:"metadata,omitempty"`
	SentMetaname string    `json:"sent_metaname,omitempty"`
	SentName     string    `json:"sent_name,omitempty"`
	Type         string    `json:"type"`
}

func toAppTransaction(tx database.Transaction) appTransaction {
	return appTransaction{
		ID:           tx.ID,
		From:         tx.From,
		To:           tx.To,
		Value:        tx.Value,
		Time:         tx.Time,
		Name:         tx.Name,
		Metadata:     tx.Metadata,
		SentMetaname: tx.SentMetaname,
		SentName:     tx.SentName,
		Type:         transactionType(tx),
	}
}

func transactionType(tx database.Transaction) string {
	switch {
	case tx.IsMined():
		return typeMined
	case tx.To == database.ToName:
		return typeNamePurchase
	case tx.To == database.ToRecord:
		return typeNameRecord
	case tx.Name != "":
		return typeNameTransfer
	}
	return typeTransfer
}

type appBlock struct {
	Height     uint64    `json:"height"`
	Address    string    `json:"address"`
	Hash       string    `json:"hash"`
	ShortHash  string    `json:"short_hash"`
	Value      uint64    `json:"value"`
	Difficulty uint64    `json:"difficulty"`
	Time       time.Time `json:"time"`
}

func toAppBlock(b database.Block) appBlock {
	return appBlock{
		Height:     b.Height,
		Address:    b.Address,
		Hash:       b.Hash,
		ShortHash:  b.ShortHash(),
		Value:      b.Value,
		Difficulty: b.Difficulty,
		Time:       b.Time,
	}
}

type appName struct {
	Name          string     `json:"name"`
	Owner         string     `json:"owner"`
	OriginalOwner string     `json:"original_owner,omitempty"`
	Registered    time.Time  `json:"registered"`
	Updated       time.Time  `json:"updated"`
	Transferred   *time.Time `json:"transferred,omitempty"`
	Record        string     `json:"a,omitempty"`
	Unpaid        uint64     `json:"unpaid"`
}

func toAppName(n database.Name) appName {
	return appName{
		Name:          n.Name,
		Owner:         n.Owner,
		OriginalOwner: n.OriginalOwner,
		Registered:    n.Registered,
		Updated:       n.Updated,
		Transferred:   n.Transferred,
		Record:        n.Record,
		Unpaid:        n.Unpaid,
	}
}

type appStats struct {
	Addresses    uint64 `json:"addresses"`
	Names        uint64 `json:"names"`
	Transactions uint64 `json:"transactions"`
	Blocks       uint64 `json:"blocks"`
	Supply       uint64 `json:"supply"`
	Work         uint64 `json:"work"`
}

func toAppStats(s state.Stats) appStats {
	return appStats{
		Addresses:    s.Addresses,
		Names:        s.Names,
		Transactions: s.Transactions,
		Blocks:       s.Blocks,
		Supply:       s.Supply,
		Work:         s.Work,
	}
}
