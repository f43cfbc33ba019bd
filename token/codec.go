package token

import (
	"bytes"
	"encoding/binary"
	"errors"
	"time"
)

const recordVersionV1 = 1

var errCorruptRecord = errors.New("corrupt token record")

func encodeRecord(r *Record) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(recordVersionV1)

	if err := writeString(&buf, r.ID); err != nil {
		return nil, err
	}
	if err := writeString(&buf, r.UserID); err != nil {
		return nil, err
	}
	if err := writeString(&buf, string(r.Kind)); err != nil {
		return nil, err
	}
	buf.Write(r.ValueHash[:])

	if err := binary.Write(&buf, binary.BigEndian, r.ExpiresAt.Unix()); err != nil {
		return nil, err
	}
	if r.Used {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	if err := binary.Write(&buf, binary.BigEndian, r.CreatedAt.Unix()); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decodeRecord(data []byte) (*Record, error) {
	buf := bytes.NewReader(data)

	version, err := buf.ReadByte()
	if err != nil || version != recordVersionV1 {
		return nil, errCorruptRecord
	}

	var r Record
	if r.ID, err = readString(buf); err != nil {
		return nil, err
	}
	if r.UserID, err = readString(buf); err != nil {
		return nil, err
	}
	kind, err := readString(buf)
	if err != nil {
		return nil, err
	}
	r.Kind = Kind(kind)

	if _, err := buf.Read(r.ValueHash[:]); err != nil {
		return nil, errCorruptRecord
	}

	var expiresAt int64
	if err := binary.Read(buf, binary.BigEndian, &expiresAt); err != nil {
		return nil, errCorruptRecord
	}
	r.ExpiresAt = time.Unix(expiresAt, 0)

	used, err := buf.ReadByte()
	if err != nil {
		return nil, errCorruptRecord
	}
	r.Used = used == 1

	var createdAt int64
	if err := binary.Read(buf, binary.BigEndian, &createdAt); err != nil {
		return nil, errCorruptRecord
	}
	r.CreatedAt = time.Unix(createdAt, 0)

	return &r, nil
}

func writeString(buf *bytes.Buffer, s string) error {
	if len(s) > 0xFFFF {
		return errCorruptRecord
	}
	if err := binary.Write(buf, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	buf.WriteString(s)
	return nil
}

func readString(buf *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(buf, binary.BigEndian, &n); err != nil {
		return "", errCorruptRecord
	}
	raw := make([]byte, n)
	if _, err := buf.Read(raw); err != nil {
		return "", errCorruptRecord
	}
	return string(raw), nil
}
