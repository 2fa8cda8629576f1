package cache

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/zeebo/xxh3"
)

// checksumSize - xxh3 (64-bit, big-endian) исходных данных перед zstd-кадром
const checksumSize = 8

var (
	codecOnce sync.Once
	encoder   *zstd.Encoder
	decoder   *zstd.Decoder
	codecErr  error
)

// initCodec создает общий энкодер/декодер zstd.
// EncodeAll/DecodeAll безопасны для конкурентного использования.
func initCodec() error {
	codecOnce.Do(func() {
		encoder, codecErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd encoder: %w", codecErr)
			return
		}
		decoder, codecErr = zstd.NewReader(nil)
		if codecErr != nil {
			codecErr = fmt.Errorf("failed to create zstd decoder: %w", codecErr)
		}
	})
	return codecErr
}

// EncodeSnapshot сжимает снапшот перед записью в Mirror.
// Формат: xxh3(raw) | zstd(raw).
func EncodeSnapshot(raw []byte) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	out := make([]byte, checksumSize, checksumSize+len(raw)/2)
	binary.BigEndian.PutUint64(out, xxh3.Hash(raw))
	return encoder.EncodeAll(raw, out), nil
}

// DecodeSnapshot распаковывает снапшот, прочитанный из Mirror,
// и проверяет контрольную сумму
func DecodeSnapshot(data []byte) ([]byte, error) {
	if err := initCodec(); err != nil {
		return nil, err
	}
	if len(data) < checksumSize {
		return nil, fmt.Errorf("snapshot too short: %d bytes", len(data))
	}
	expected := binary.BigEndian.Uint64(data[:checksumSize])

	raw, err := decoder.DecodeAll(data[checksumSize:], nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress snapshot: %w", err)
	}
	if actual := xxh3.Hash(raw); actual != expected {
		return nil, fmt.Errorf("checksum mismatch: expected %016x, got %016x (data corruption detected)", expected, actual)
	}
	return raw, nil
}
