// Package protocol parses one wire message into a typed command.
//
// The grammar is case-sensitive and space-delimited:
//
//	add product <index> <quantity>
//	view cart
//	place order
//	update account <name>,<address>,<pin>,<mobile>
//	save account and cart
//	load account and cart
//	quit
//
// Anything else, including malformed numbers and oversized input, is
// ErrInvalidCommand. The parser never panics and never reads past its input.
package protocol

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mkrishnan-dev/watch-shop-server/internal/model"
)

// MaxMessageBytes is the largest message the protocol accepts.
const MaxMessageBytes = 1023

// ErrInvalidCommand marks unrecognized or malformed input.
var ErrInvalidCommand = errors.New("invalid command")

// Kind tags a parsed command.
type Kind int

const (
	KindAdd Kind = iota
	KindViewCart
	KindPlaceOrder
	KindUpdateAccount
	KindSave
	KindLoad
	KindQuit
)

// Command is one parsed client request. Index and Qty are set for KindAdd,
// Account for KindUpdateAccount.
type Command struct {
	Kind    Kind
	Index   int // 0-based product index
	Qty     int
	Account model.Account
}

// Parse tokenizes one message into a Command.
func Parse(msg string) (Command, error) {
	if msg == "" || len(msg) > MaxMessageBytes {
		return Command{}, ErrInvalidCommand
	}

	switch msg {
	case "view cart":
		return Command{Kind: KindViewCart}, nil
	case "place order":
		return Command{Kind: KindPlaceOrder}, nil
	case "save account and cart":
		return Command{Kind: KindSave}, nil
	case "load account and cart":
		return Command{Kind: KindLoad}, nil
	case "quit":
		return Command{Kind: KindQuit}, nil
	}

	if rest, ok := strings.CutPrefix(msg, "add product "); ok {
		return parseAdd(rest)
	}
	if rest, ok := strings.CutPrefix(msg, "update account "); ok {
		return parseUpdateAccount(rest)
	}
	return Command{}, ErrInvalidCommand
}

func parseAdd(rest string) (Command, error) {
	fields := strings.Fields(rest)
	if len(fields) != 2 {
		return Command{}, ErrInvalidCommand
	}
	index, err := strconv.Atoi(fields[0])
	if err != nil {
		return Command{}, ErrInvalidCommand
	}
	qty, err := strconv.Atoi(fields[1])
	if err != nil || qty < 1 {
		return Command{}, ErrInvalidCommand
	}
	// The wire index is 1-based.
	return Command{Kind: KindAdd, Index: index - 1, Qty: qty}, nil
}

func parseUpdateAccount(rest string) (Command, error) {
	parts := strings.Split(rest, ",")
	if len(parts) != 4 {
		return Command{}, ErrInvalidCommand
	}
	// Mobile stops at the first whitespace, matching the historical format.
	mobile := parts[3]
	if i := strings.IndexAny(mobile, " \t"); i >= 0 {
		mobile = mobile[:i]
	}
	a := model.Account{
		Name:    parts[0],
		Address: parts[1],
		PIN:     parts[2],
		Mobile:  mobile,
	}
	if a.Name == "" || a.Address == "" || a.PIN == "" || a.Mobile == "" {
		return Command{}, ErrInvalidCommand
	}
	if err := a.Validate(); err != nil {
		return Command{}, ErrInvalidCommand
	}
	return Command{Kind: KindUpdateAccount, Account: a}, nil
}
