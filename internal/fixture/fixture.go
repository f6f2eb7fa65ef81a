// Package fixture loads groups and their history from YAML files.
package fixture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/mmynk/splitledger/internal/calculator"
	"github.com/mmynk/splitledger/internal/ledger"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/money"
	"github.com/mmynk/splitledger/internal/storage"
)

// DefaultExponent is the number of decimal places of fixture amounts when the
// file does not set one (cents).
const DefaultExponent int32 = 2

// File is the top-level document of a fixture.
//
//	exponent: 2
//	groups:
//	  - id: trip
//	    name: Ski trip
//	    members:
//	      - {id: alice, display_name: Alice}
//	      - {id: bob}
//	expenses:
//	  - group: trip
//	    payer: alice
//	    amount: "90.00"
//	    split_evenly: [alice, bob]
//	settlements:
//	  - {group: trip, from: bob, to: alice, amount: "45.00"}
type File struct {
	Exponent    *int32       `yaml:"exponent"`
	Groups      []Group      `yaml:"groups"`
	Expenses    []Expense    `yaml:"expenses"`
	Settlements []Settlement `yaml:"settlements"`
}

type Group struct {
	ID      string   `yaml:"id"`
	Name    string   `yaml:"name"`
	Members []Member `yaml:"members"`
}

type Member struct {
	ID          string `yaml:"id"`
	DisplayName string `yaml:"display_name"`
}

// Expense amounts are decimal strings in major units.
type Expense struct {
	Group       string   `yaml:"group"`
	Payer       string   `yaml:"payer"`
	Amount      string   `yaml:"amount"`
	Description string   `yaml:"description"`
	Splits      []Share  `yaml:"splits"`
	SplitEvenly []string `yaml:"split_evenly"`
}

type Share struct {
	Member string `yaml:"member"`
	Amount string `yaml:"amount"`
}

type Settlement struct {
	Group  string `yaml:"group"`
	From   string `yaml:"from"`
	To     string `yaml:"to"`
	Amount string `yaml:"amount"`
	Note   string `yaml:"note"`
}

// Summary counts what Apply wrote.
type Summary struct {
	Groups      int
	Members     int
	Expenses    int
	Settlements int
}

// Load decodes a fixture. Unknown fields are rejected.
func Load(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return &f, nil
}

func (f *File) exponent() int32 {
	if f.Exponent == nil {
		return DefaultExponent
	}
	return *f.Exponent
}

// Apply writes the fixture's groups through store and records its expenses and
// settlements through l, in file order. Groups that already exist gain any
// missing members. The first rejected record stops the import.
func (f *File) Apply(ctx context.Context, store storage.Store, l *ledger.Ledger) (Summary, error) {
	var summary Summary
	exp := f.exponent()

	for _, g := range f.Groups {
		if g.ID == "" {
			return summary, errors.New("group without id")
		}
		members := make([]models.Member, len(g.Members))
		for i, m := range g.Members {
			members[i] = models.Member{ID: m.ID, DisplayName: m.DisplayName}
		}

		err := store.CreateGroup(ctx, &models.Group{ID: g.ID, Name: g.Name, Members: members})
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			if err := store.AddGroupMembers(ctx, g.ID, members); err != nil {
				return summary, fmt.Errorf("failed to add members to group %s: %w", g.ID, err)
			}
			l.Invalidate(g.ID)
		case err != nil:
			return summary, fmt.Errorf("failed to create group %s: %w", g.ID, err)
		default:
			summary.Groups++
		}
		summary.Members += len(members)
	}

	for i, e := range f.Expenses {
		in, err := e.input(exp)
		if err != nil {
			return summary, fmt.Errorf("expense %d: %w", i, err)
		}
		if _, _, err := l.RecordExpense(ctx, e.Group, in); err != nil {
			return summary, fmt.Errorf("expense %d: %w", i, err)
		}
		summary.Expenses++
	}

	for i, s := range f.Settlements {
		amount, err := money.ParseMajor(s.Amount, exp)
		if err != nil {
			return summary, fmt.Errorf("settlement %d: amount %q: %w", i, s.Amount, err)
		}
		in := calculator.SettlementInput{
			GroupID:      s.Group,
			FromMemberID: s.From,
			ToMemberID:   s.To,
			Amount:       amount,
			Note:         s.Note,
		}
		if _, _, err := l.RecordSettlement(ctx, s.Group, in); err != nil {
			return summary, fmt.Errorf("settlement %d: %w", i, err)
		}
		summary.Settlements++
	}

	return summary, nil
}

func (e Expense) input(exp int32) (calculator.ExpenseInput, error) {
	total, err := money.ParseMajor(e.Amount, exp)
	if err != nil {
		return calculator.ExpenseInput{}, fmt.Errorf("amount %q: %w", e.Amount, err)
	}
	in := calculator.ExpenseInput{
		GroupID:     e.Group,
		PayerID:     e.Payer,
		TotalAmount: total,
		Description: e.Description,
	}

	if len(e.SplitEvenly) > 0 {
		if len(e.Splits) > 0 {
			return in, errors.New("splits and split_evenly are mutually exclusive")
		}
		participants := slices.Clone(e.SplitEvenly)
		slices.Sort(participants)
		in.Splits, err = calculator.EvenSplit(total, participants)
		return in, err
	}

	for _, s := range e.Splits {
		amount, err := money.ParseMajor(s.Amount, exp)
		if err != nil {
			return in, fmt.Errorf("split for %s: amount %q: %w", s.Member, s.Amount, err)
		}
		in.Splits = append(in.Splits, calculator.Split{MemberID: s.Member, Amount: amount})
	}
	return in, nil
}
