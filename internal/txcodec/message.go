package txcodec

import (
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// AccountMeta describes one account an instruction touches. Ordering of
// metas within an instruction is part of the program's ABI.
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation before compilation into a
// message.
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// MessageHeader counts the signature requirements of a compiled message.
type MessageHeader struct {
	NumRequiredSignatures uint8
	NumReadonlySigned     uint8
	NumReadonlyUnsigned   uint8
}

type compiledInstruction struct {
	programIDIndex uint8
	accountIndexes []uint8
	data           []byte
}

// Message is a compiled legacy message: deduplicated account table,
// recent blockhash freshness token, and index-compiled instructions.
type Message struct {
	Header          MessageHeader
	AccountKeys     []Pubkey
	RecentBlockhash [32]byte
	instructions    []compiledInstruction
}

// NewMessage compiles instructions into a message. The fee payer is
// always the first account. Instruction order is preserved exactly as
// given; the caller owns the protocol-mandated ordering.
func NewMessage(feePayer Pubkey, recentBlockhash string, instructions []Instruction) (*Message, error) {
	if len(instructions) == 0 {
		return nil, fmt.Errorf("message requires at least one instruction")
	}

	blockhash, err := base58.Decode(recentBlockhash)
	if err != nil {
		return nil, fmt.Errorf("decode blockhash: %w", err)
	}
	if len(blockhash) != 32 {
		return nil, fmt.Errorf("blockhash: expected 32 bytes, got %d", len(blockhash))
	}

	// Collect unique keys with merged signer/writable privileges.
	type privileges struct {
		signer   bool
		writable bool
		order    int
	}
	seen := make(map[Pubkey]*privileges)
	var firstSeen []Pubkey

	record := func(pk Pubkey, signer, writable bool) {
		p, ok := seen[pk]
		if !ok {
			p = &privileges{order: len(firstSeen)}
			seen[pk] = p
			firstSeen = append(firstSeen, pk)
		}
		p.signer = p.signer || signer
		p.writable = p.writable || writable
	}

	record(feePayer, true, true)
	for _, ix := range instructions {
		for _, meta := range ix.Accounts {
			record(meta.Pubkey, meta.IsSigner, meta.IsWritable)
		}
		record(ix.ProgramID, false, false)
	}

	// Account table order: fee payer, writable signers, readonly
	// signers, writable non-signers, readonly non-signers. Within a
	// group, first-seen order keeps compilation deterministic.
	var keys []Pubkey
	appendGroup := func(signer, writable bool) {
		for _, pk := range firstSeen {
			p := seen[pk]
			if p.signer == signer && p.writable == writable {
				keys = append(keys, pk)
			}
		}
	}
	appendGroup(true, true)
	appendGroup(true, false)
	appendGroup(false, true)
	appendGroup(false, false)

	index := make(map[Pubkey]uint8, len(keys))
	var header MessageHeader
	for i, pk := range keys {
		if i > 255 {
			return nil, fmt.Errorf("too many accounts: %d", len(keys))
		}
		index[pk] = uint8(i)
		p := seen[pk]
		if p.signer {
			header.NumRequiredSignatures++
			if !p.writable {
				header.NumReadonlySigned++
			}
		} else if !p.writable {
			header.NumReadonlyUnsigned++
		}
	}

	compiled := make([]compiledInstruction, 0, len(instructions))
	for _, ix := range instructions {
		ci := compiledInstruction{
			programIDIndex: index[ix.ProgramID],
			data:           ix.Data,
		}
		for _, meta := range ix.Accounts {
			ci.accountIndexes = append(ci.accountIndexes, index[meta.Pubkey])
		}
		compiled = append(compiled, ci)
	}

	msg := &Message{
		Header:       header,
		AccountKeys:  keys,
		instructions: compiled,
	}
	copy(msg.RecentBlockhash[:], blockhash)
	return msg, nil
}

// Serialize produces the wire bytes of the message. These are also the
// bytes the signer signs.
func (m *Message) Serialize() []byte {
	buf := []byte{
		m.Header.NumRequiredSignatures,
		m.Header.NumReadonlySigned,
		m.Header.NumReadonlyUnsigned,
	}

	buf = appendCompactU16(buf, len(m.AccountKeys))
	for _, pk := range m.AccountKeys {
		buf = append(buf, pk[:]...)
	}

	buf = append(buf, m.RecentBlockhash[:]...)

	buf = appendCompactU16(buf, len(m.instructions))
	for _, ci := range m.instructions {
		buf = append(buf, ci.programIDIndex)
		buf = appendCompactU16(buf, len(ci.accountIndexes))
		buf = append(buf, ci.accountIndexes...)
		buf = appendCompactU16(buf, len(ci.data))
		buf = append(buf, ci.data...)
	}

	return buf
}

// SignatureLength is the size of an ed25519 signature.
const SignatureLength = 64

// Transaction pairs a compiled message with its signatures in account
// table order.
type Transaction struct {
	Signatures [][]byte
	Message    *Message
}

// Serialize produces the submittable wire bytes: compact signature
// count, signatures, then the message.
func (t *Transaction) Serialize() ([]byte, error) {
	if t.Message == nil {
		return nil, fmt.Errorf("transaction has no message")
	}
	want := int(t.Message.Header.NumRequiredSignatures)
	if len(t.Signatures) != want {
		return nil, fmt.Errorf("expected %d signatures, got %d", want, len(t.Signatures))
	}
	var buf []byte
	buf = appendCompactU16(buf, len(t.Signatures))
	for i, sig := range t.Signatures {
		if len(sig) != SignatureLength {
			return nil, fmt.Errorf("signature %d: expected %d bytes, got %d", i, SignatureLength, len(sig))
		}
		buf = append(buf, sig...)
	}
	buf = append(buf, t.Message.Serialize()...)
	return buf, nil
}

// Base64 returns the serialized transaction in the encoding the RPC
// send and simulate endpoints accept.
func (t *Transaction) Base64() (string, error) {
	raw, err := t.Serialize()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// UnsignedBase64 serializes the transaction with zeroed signatures, as
// required for simulation with signature verification disabled.
func (t *Transaction) UnsignedBase64() (string, error) {
	if t.Message == nil {
		return "", fmt.Errorf("transaction has no message")
	}
	placeholder := &Transaction{Message: t.Message}
	for i := 0; i < int(t.Message.Header.NumRequiredSignatures); i++ {
		placeholder.Signatures = append(placeholder.Signatures, make([]byte, SignatureLength))
	}
	return placeholder.Base64()
}
