package state

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/ledger/foundation/ledger/address"
	"github.com/ardanlabs/ledger/foundation/ledger/database"
)

// TransferRequest is a request to move value from an authenticated address.
// To is an address or a name reference of the form "meta@name.kst".
type TransferRequest struct {
	From      string
	To        string
	Amount    uint64
	Metadata  string
	RequestID string
}

// transferIntent is a validated request with the recipient still unresolved.
type transferIntent struct {
	from      string
	to        string
	ref       nameRef
	byName    bool
	amount    uint64
	metadata  string
	requestID string
}

// Transfer moves value between two addresses. A request id makes the call
// safe to retry: replaying the same arguments returns the original
// transaction without moving value again.
func (s *State) Transfer(ctx context.Context, req TransferRequest) (database.Transaction, error) {
	started := time.Now()

	tx, err := s.transfer(ctx, req)
	s.observer.ObserveOperation("transfer", err, started)

	return tx, err
}

func (s *State) transfer(ctx context.Context, req TransferRequest) (database.Transaction, error) {
	if !s.TransactionsEnabled() {
		return database.Transaction{}, ErrTransactionsDisabled
	}

	in, err := newTransferIntent(req)
	if err != nil {
		return database.Transaction{}, err
	}

	// Legacy addresses only receive value once they hold a row. Rows are
	// never removed, so the check holds for the rest of the call.
	if in.to != "" && !address.IsValid(in.to, false) {
		if _, err := s.store.QueryAddress(ctx, in.to); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return database.Transaction{}, ErrAddressNotFound
			}
			return database.Transaction{}, s.unexpected("transfer", err)
		}
	}

	var result database.Transaction
	var replay, created bool

	err = s.queue.Do(ctx, func(ctx context.Context) error {
		var err error
		result, replay, created, err = s.commitTransfer(ctx, in)
		return err
	})
	if err != nil {
		return database.Transaction{}, s.unexpected("transfer", err)
	}

	if replay {
		return result, nil
	}

	keys := []string{CountTransactions}
	if created {
		keys = append(keys, CountAddresses)
	}
	s.cache.Invalidate(keys...)

	s.publish(TransactionEvent{Transaction: result})

	return result, nil
}

// commitTransfer runs the transfer in one store transaction. The sender row
// stays locked from the balance check until commit.
func (s *State) commitTransfer(ctx context.Context, in transferIntent) (result database.Transaction, replay bool, created bool, err error) {
	var want database.Transaction

	err = s.store.InTx(ctx, func(tx database.Tx) error {
		var err error
		want, err = s.route(ctx, tx, in)
		if err != nil {
			return err
		}

		if in.requestID != "" {
			prev, err := tx.QueryTransactionByRequestID(ctx, in.requestID)
			switch {
			case err == nil:
				if err := compareReplay(prev, want); err != nil {
					return err
				}
				result, replay = prev, true
				return nil

			case !errors.Is(err, database.ErrNotFound):
				return err
			}
		}

		sender, err := tx.LockAddress(ctx, in.from)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return ErrSenderNotFound
			}
			return err
		}

		if sender.Balance < in.amount {
			return ErrInsufficientFunds
		}

		if err := tx.Debit(ctx, in.from, in.amount); err != nil {
			if errors.Is(err, database.ErrOverdraft) {
				return ErrInsufficientFunds
			}
			return err
		}

		created, err = tx.Credit(ctx, want.To, in.amount, want.Time)
		if err != nil {
			return err
		}

		result, err = tx.InsertTransaction(ctx, want)
		return err
	})

	// Two first attempts with the same request id raced and the other one
	// committed. Treat this call as a replay of the winner.
	if errors.Is(err, database.ErrDuplicate) && in.requestID != "" {
		prev, qerr := s.queryByRequestID(ctx, in.requestID)
		if qerr != nil {
			return database.Transaction{}, false, false, qerr
		}
		if cerr := compareReplay(prev, want); cerr != nil {
			return database.Transaction{}, false, false, cerr
		}
		return prev, true, false, nil
	}

	if err != nil {
		return database.Transaction{}, false, false, err
	}

	return result, replay, created, nil
}

// route resolves the recipient and builds the transaction the request
// would insert. Name routing from the recipient wins over routing from the
// metadata.
func (s *State) route(ctx context.Context, tx database.Tx, in transferIntent) (database.Transaction, error) {
	want := database.Transaction{
		From:      database.StrPtr(in.from),
		To:        in.to,
		Value:     in.amount,
		Time:      s.now(),
		Metadata:  in.metadata,
		RequestID: database.StrPtr(in.requestID),
	}

	ref := in.ref
	routed := in.byName

	if !routed {
		ref, routed = parseMetadataNameRef(in.metadata)
	}

	if !routed {
		return want, nil
	}

	name, err := tx.QueryName(ctx, ref.name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.Transaction{}, ErrNameNotFound
		}
		return database.Transaction{}, err
	}

	want.To = name.Owner
	want.SentName = ref.name
	want.SentMetaname = ref.metaname

	if in.byName {
		want.Metadata = ref.raw
		if in.metadata != "" {
			want.Metadata = ref.raw + ";" + in.metadata
		}
	}

	return want, nil
}

func (s *State) queryByRequestID(ctx context.Context, requestID string) (database.Transaction, error) {
	var prev database.Transaction

	err := s.store.InTx(ctx, func(tx database.Tx) error {
		var err error
		prev, err = tx.QueryTransactionByRequestID(ctx, requestID)
		return err
	})

	return prev, err
}

// =============================================================================

func newTransferIntent(req TransferRequest) (transferIntent, error) {
	if req.From == "" {
		return transferIntent{}, missing("from")
	}
	if !address.IsValid(req.From, true) {
		return transferIntent{}, invalid("from")
	}

	if req.To == "" {
		return transferIntent{}, missing("to")
	}

	if req.Amount == 0 {
		return transferIntent{}, invalid("amount")
	}

	if !validMetadata(req.Metadata) {
		return transferIntent{}, invalid("metadata")
	}

	if len(req.RequestID) > maxRequestID {
		return transferIntent{}, invalid("requestId")
	}

	in := transferIntent{
		from:      address.Canonical(req.From),
		amount:    req.Amount,
		metadata:  req.Metadata,
		requestID: req.RequestID,
	}

	switch ref, ok := parseNameRef(req.To); {
	case ok:
		in.ref = ref
		in.byName = true

	case address.IsValid(req.To, true):
		in.to = address.Canonical(req.To)

	default:
		return transferIntent{}, invalid("to")
	}

	return in, nil
}

// compareReplay checks the stored transaction against the replayed one in a
// fixed field order and names the first difference.
func compareReplay(prev database.Transaction, want database.Transaction) error {
	switch {
	case prev.FromAddress() != want.FromAddress():
		return &RequestIDConflictError{Field: "from"}
	case prev.To != want.To && !sameName(prev, want):
		return &RequestIDConflictError{Field: "to"}
	case prev.Value != want.Value:
		return &RequestIDConflictError{Field: "amount"}
	case prev.Name != want.Name:
		return &RequestIDConflictError{Field: "name"}
	case prev.Metadata != want.Metadata:
		return &RequestIDConflictError{Field: "metadata"}
	case prev.SentMetaname != want.SentMetaname:
		return &RequestIDConflictError{Field: "sent_metaname"}
	case prev.SentName != want.SentName:
		return &RequestIDConflictError{Field: "sent_name"}
	}

	return nil
}

// sameName reports whether both transactions were routed through the same
// name. The owner may have changed between the attempts.
func sameName(prev database.Transaction, want database.Transaction) bool {
	return prev.SentName != "" && prev.SentName == want.SentName
}
