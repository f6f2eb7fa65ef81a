package ledger

import (
	"context"
	"fmt"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/events"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

// RecordSettlement records a payment from one member to another.
// The payer's balance rises and the receiver's falls by the amount.
func (l *Ledger) RecordSettlement(ctx context.Context, groupID string, in calculator.SettlementInput) (*models.Settlement, *Snapshot, error) {
	settlement, snapshot, err := l.recordSettlement(ctx, groupID, in)
	l.observe(opRecordSettlement, err)
	if err != nil {
		return nil, nil, err
	}

	l.logger.InfoContext(ctx, "Settlement recorded",
		"group_id", groupID,
		"settlement_id", settlement.ID,
		"from", settlement.FromMemberID,
		"to", settlement.ToMemberID,
		"amount", settlement.Amount)
	l.publish(ctx, events.New(events.SettlementRecorded, groupID, settlement.ID))
	return settlement, snapshot, nil
}

func (l *Ledger) recordSettlement(ctx context.Context, groupID string, in calculator.SettlementInput) (*models.Settlement, *Snapshot, error) {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	group, err := l.Group(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	members := group.MemberIDs()

	in.GroupID = groupID
	if err := calculator.ValidateSettlement(in, members); err != nil {
		return nil, nil, err
	}

	settlement := &models.Settlement{
		GroupID:      groupID,
		FromMemberID: in.FromMemberID,
		ToMemberID:   in.ToMemberID,
		Amount:       in.Amount,
		Note:         in.Note,
		CreatedAt:    l.now().UnixMilli(),
	}
	storage.PrepareSettlement(settlement)

	expenses, settlements, err := l.records(ctx, groupID)
	if err != nil {
		return nil, nil, err
	}
	snapshot, err := l.compute(ctx, opRecordSettlement, groupID, members, expenses, append(settlements, settlement))
	if err != nil {
		return nil, nil, err
	}

	if err := l.store.CreateSettlement(ctx, settlement); err != nil {
		return nil, nil, fmt.Errorf("failed to persist settlement: %w", err)
	}
	st.set(snapshot, members)

	return settlement, snapshot, nil
}

// DeleteSettlement removes a settlement and returns the resulting balances.
func (l *Ledger) DeleteSettlement(ctx context.Context, groupID, settlementID string) (*Snapshot, error) {
	snapshot, err := l.deleteSettlement(ctx, groupID, settlementID)
	l.observe(opDeleteSettlement, err)
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Settlement deleted", "group_id", groupID, "settlement_id", settlementID)
	l.publish(ctx, events.New(events.SettlementDeleted, groupID, settlementID))
	return snapshot, nil
}

func (l *Ledger) deleteSettlement(ctx context.Context, groupID, settlementID string) (*Snapshot, error) {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()

	group, err := l.Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members := group.MemberIDs()

	target, err := l.store.GetSettlement(ctx, settlementID)
	if err != nil {
		return nil, translateNotFound(err, ErrSettlementNotFound, settlementID)
	}
	if target.GroupID != groupID {
		return nil, fmt.Errorf("%w: %s", ErrSettlementNotFound, settlementID)
	}

	expenses, settlements, err := l.records(ctx, groupID)
	if err != nil {
		return nil, err
	}
	remaining := make([]*models.Settlement, 0, len(settlements))
	for _, s := range settlements {
		if s.ID != settlementID {
			remaining = append(remaining, s)
		}
	}
	snapshot, err := l.compute(ctx, opDeleteSettlement, groupID, members, expenses, remaining)
	if err != nil {
		return nil, err
	}

	if err := l.store.DeleteSettlement(ctx, settlementID); err != nil {
		return nil, translateNotFound(err, ErrSettlementNotFound, settlementID)
	}
	st.set(snapshot, members)

	return snapshot, nil
}

// ListSettlements returns the settlements of a group, oldest first.
func (l *Ledger) ListSettlements(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	st, err := l.state(ctx, groupID)
	if err != nil {
		return nil, err
	}
	st.mu.RLock()
	defer st.mu.RUnlock()

	if _, err := l.Group(ctx, groupID); err != nil {
		return nil, err
	}
	settlements, err := l.store.ListSettlementsByGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}
