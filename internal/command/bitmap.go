package command

import (
	"context"
	"errors"

	"github.com/karashiiro/wedis/internal/bitops"
	"github.com/karashiiro/wedis/internal/conn"
	"github.com/karashiiro/wedis/internal/indexing"
	"github.com/karashiiro/wedis/internal/storage"
)

var errBadUnit = errors.New("bitmap: unrecognised range unit")

func (d *Dispatcher) registerBitmapCommands() {
	d.register("BITCOUNT", 2, 5, handleBitcount)
	d.register("BITPOS", 3, 6, handleBitpos)
	d.register("GETBIT", 3, 3, handleGetbit)
	d.register("SETBIT", 4, 4, handleSetbit)
}

// bitRangeUnit resolves the optional trailing BYTE|BIT token (defaulting to
// BYTE) and converts an inclusive (start, end) pair given in that unit into
// a half-open bit range [startBit, endBitExclusive), normalising negative indices against the string's
// length the same way the other range-taking commands do.
func bitRangeUnit(dataLen int, start, end int64, unitToken string) (startBit, endBitExclusive int, err error) {
	bitUnit := false
	switch unitToken {
	case "", "BYTE":
		bitUnit = false
	case "BIT":
		bitUnit = true
	default:
		return 0, 0, errBadUnit
	}

	var endIndex int
	if bitUnit {
		endIndex = dataLen*8 - 1
	} else {
		endIndex = dataLen - 1
	}
	lo, hi := indexing.Normalise(endIndex, start, end)
	if lo < 0 {
		lo = 0
	}
	if hi > endIndex {
		hi = endIndex
	}
	if lo > hi {
		return 0, 0, nil
	}

	if bitUnit {
		return lo, hi + 1, nil
	}
	return lo * 8, (hi + 1) * 8, nil
}

func handleBitcount(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	value, _, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("BITCOUNT", err)
	}
	if len(value) == 0 {
		return ReplyInt(0)
	}

	if len(args) == 2 {
		return ReplyInt(int64(bitops.Popcount(value)))
	}
	if len(args) == 3 {
		return ReplyError(errArgCount)
	}

	start, serr := argInt(args, 2)
	end, eerr := argInt(args, 3)
	if serr != nil || eerr != nil {
		return ReplyError(errNotInteger)
	}
	unitToken := ""
	if len(args) == 5 {
		unitToken, _ = argUpper(args, 4)
	}

	startBit, endBitExclusive, uerr := bitRangeUnit(len(value), start, end, unitToken)
	if uerr != nil {
		return ReplyError(errUnknownAttribute)
	}

	ranged := bitops.BitRange(value, startBit, endBitExclusive)
	return ReplyInt(int64(bitops.Popcount(ranged)))
}

func handleBitpos(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	bit, berr := argInt(args, 2)
	if berr != nil || (bit != 0 && bit != 1) {
		return ReplyError(errNotInteger)
	}

	value, _, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("BITPOS", err)
	}

	startBit, endBitExclusive := 0, len(value)*8
	if len(args) >= 4 {
		start, serr := argInt(args, 3)
		if serr != nil {
			return ReplyError(errNotInteger)
		}
		end := int64(-1)
		if len(args) >= 5 {
			end, err = argInt(args, 4)
			if err != nil {
				return ReplyError(errNotInteger)
			}
		}
		unitToken := ""
		if len(args) == 6 {
			unitToken, _ = argUpper(args, 5)
		}
		startBit, endBitExclusive, err = bitRangeUnit(len(value), start, end, unitToken)
		if err != nil {
			return ReplyError(errUnknownAttribute)
		}
	}

	pos, ok := bitops.FirstBit(value, int(bit), startBit, endBitExclusive)
	if !ok {
		return ReplyInt(-1)
	}
	return ReplyInt(int64(pos))
}

func handleGetbit(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	offset, err := argInt(args, 2)
	if err != nil || offset < 0 {
		return ReplyError(errBitOffset)
	}

	value, _, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("GETBIT", err)
	}
	return ReplyInt(int64(bitops.GetBit(value, int(offset))))
}

func handleSetbit(ctx context.Context, cc *conn.Context, s *storage.Storage, args [][]byte) Reply {
	key, _ := argBytes(args, 1)
	offset, err := argInt(args, 2)
	if err != nil || offset < 0 {
		return ReplyError(errBitOffset)
	}
	bitVal, err := argInt(args, 3)
	if err != nil || (bitVal != 0 && bitVal != 1) {
		return ReplyError(errBitOffset)
	}

	value, _, err := s.GetString(ctx, key)
	if err != nil {
		return classifyStorageError("SETBIT", err)
	}

	updated, previous := bitops.SetBit(value, int(offset), int(bitVal))
	if err := s.PutString(ctx, key, updated); err != nil {
		return classifyStorageError("SETBIT", err)
	}
	return ReplyInt(int64(previous))
}
