package sqldb

import (
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

type dbAddress struct {
	Address   string    `gorm:"column:address;primaryKey"`
	Balance   uint64    `gorm:"column:balance"`
	TotalIn   uint64    `gorm:"column:totalin"`
	TotalOut  uint64    `gorm:"column:totalout"`
	FirstSeen time.Time `gorm:"column:firstseen"`
	Alert     string    `gorm:"column:alert"`
	Locked    bool      `gorm:"column:locked"`
}

func (dbAddress) TableName() string { return "addresses" }

type dbTransaction struct {
	ID           uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	From         *string   `gorm:"column:from"`
	To           string    `gorm:"column:to"`
	Value        uint64    `gorm:"column:value"`
	Time         time.Time `gorm:"column:time"`
	Name         string    `gorm:"column:name"`
	Op           string    `gorm:"column:op"`
	SentMetaname string    `gorm:"column:sent_metaname"`
	SentName     string    `gorm:"column:sent_name"`
	RequestID    *string   `gorm:"column:request_id"`
}

func (dbTransaction) TableName() string { return "transactions" }

type dbBlock struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement:false"`
	Hash       string    `gorm:"column:hash"`
	Address    string    `gorm:"column:address"`
	Nonce      []byte    `gorm:"column:nonce"`
	Value      uint64    `gorm:"column:value"`
	Difficulty uint64    `gorm:"column:difficulty"`
	Time       time.Time `gorm:"column:time"`
}

func (dbBlock) TableName() string { return "blocks" }

type dbName struct {
	Name          string     `gorm:"column:name;primaryKey"`
	Owner         string     `gorm:"column:owner"`
	OriginalOwner string     `gorm:"column:original_owner"`
	Registered    time.Time  `gorm:"column:registered"`
	Updated       time.Time  `gorm:"column:updated"`
	Transferred   *time.Time `gorm:"column:transferred"`
	A             string     `gorm:"column:a"`
	Unpaid        uint64     `gorm:"column:unpaid"`
}

func (dbName) TableName() string { return "names" }

type dbSetting struct {
	Key   string `gorm:"column:name;primaryKey"`
	Value string `gorm:"column:value"`
}

func (dbSetting) TableName() string { return "settings" }

// =============================================================================

func toAddress(row dbAddress) database.Address {
	return database.Address{
		Address:   row.Address,
		Balance:   row.Balance,
		TotalIn:   row.TotalIn,
		TotalOut:  row.TotalOut,
		FirstSeen: row.FirstSeen,
		Alert:     row.Alert,
		Locked:    row.Locked,
	}
}

func toDBTransaction(tx database.Transaction) dbTransaction {
	return dbTransaction{
		ID:           tx.ID,
		From:         tx.From,
		To:           tx.To,
		Value:        tx.Value,
		Time:         tx.Time,
		Name:         tx.Name,
		Op:           tx.Metadata,
		SentMetaname: tx.SentMetaname,
		SentName:     tx.SentName,
		RequestID:    tx.RequestID,
	}
}

func toTransaction(row dbTransaction) database.Transaction {
	return database.Transaction{
		ID:           row.ID,
		From:         row.From,
		To:           row.To,
		Value:        row.Value,
		Time:         row.Time,
		Name:         row.Name,
		Metadata:     row.Op,
		SentMetaname: row.SentMetaname,
		SentName:     row.SentName,
		RequestID:    row.RequestID,
	}
}

func toDBBlock(b database.Block) dbBlock {
	return dbBlock{
		ID:         b.Height,
		Hash:       b.Hash,
		Address:    b.Address,
		Nonce:      b.Nonce,
		Value:      b.Value,
		Difficulty: b.Difficulty,
		Time:       b.Time,
	}
}

func toBlock(row dbBlock) database.Block {
	return database.Block{
		Height:     row.ID,
		Hash:       row.Hash,
		Address:    row.Address,
		Nonce:      row.Nonce,
		Value:      row.Value,
		Difficulty: row.Difficulty,
		Time:       row.Time,
	}
}

func toDBName(n database.Name) dbName {
	return dbName{
		Name:          n.Name,
		Owner:         n.Owner,
		OriginalOwner: n.OriginalOwner,
		Registered:    n.Registered,
		Updated:       n.Updated,
		Transferred:   n.Transferred,
		A:             n.Record,
		Unpaid:        n.Unpaid,
	}
}

func toName(row dbName) database.Name {
	return database.Name{
		Name:          row.Name,
		Owner:         row.Owner,
		OriginalOwner: row.OriginalOwner,
		Registered:    row.Registered,
		Updated:       row.Updated,
		Transferred:   row.Transferred,
		Record:        row.A,
		Unpaid:        row.Unpaid,
	}
}
