package pcapdiff

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jgibbard/pcapdiff/pcapfile"
)

// buildPCAP assembles a minimal microsecond-resolution capture buffer with
// the given link type and records, each a (sec, usec, payload) tuple.
func buildPCAP(linkType uint32, records [][3]interface{}) []byte {
	buf := make([]byte, pcapfile.FileHeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], pcapfile.MagicMicroseconds)
	binary.LittleEndian.PutUint16(buf[4:6], pcapfile.SupportedMajorVersion)
	binary.LittleEndian.PutUint16(buf[6:8], pcapfile.SupportedMinorVersion)
	binary.LittleEndian.PutUint32(buf[16:20], pcapfile.StandardSnapLen)
	binary.LittleEndian.PutUint32(buf[20:24], linkType)

	for _, rec := range records {
		sec := rec[0].(uint32)
		usec := rec[1].(uint32)
		data := rec[2].([]byte)

		hdr := make([]byte, pcapfile.RecordHeaderSize)
		binary.LittleEndian.PutUint32(hdr[0:4], sec)
		binary.LittleEndian.PutUint32(hdr[4:8], usec)
		binary.LittleEndian.PutUint32(hdr[8:12], uint32(len(data)))
		binary.LittleEndian.PutUint32(hdr[12:16], uint32(len(data)))
		buf = append(buf, hdr...)
		buf = append(buf, data...)
	}

	return buf
}

func TestRunIdenticalFilesExitsZero(t *testing.T) {
	bufA := buildPCAP(1, [][3]interface{}{
		{uint32(1), uint32(0), []byte{0x01}},
		{uint32(2), uint32(0), []byte{0x02}},
	})
	bufB := buildPCAP(1, [][3]interface{}{
		{uint32(1), uint32(0), []byte{0x01}},
		{uint32(2), uint32(0), []byte{0x02}},
	})

	result, err := Run(bufA, bufB, Options{
		RangeA:       "[:]",
		RangeB:       "[:]",
		TimeNeg:      0.01,
		TimePos:      0.01,
		SearchMethod: "timestamp",
		OutputFormat: "basic",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.ExitCode)
	assert.Equal(t, 2, result.Matched)
	assert.Equal(t, 0, result.Removed)
	assert.Equal(t, 0, result.Added)
	assert.NotEmpty(t, result.Output)
}

func TestRunOneAddedPacketExitsNonZero(t *testing.T) {
	bufA := buildPCAP(1, [][3]interface{}{
		{uint32(1), uint32(0), []byte{0x01}},
	})
	bufB := buildPCAP(1, [][3]interface{}{
		{uint32(1), uint32(0), []byte{0x01}},
		{uint32(2), uint32(0), []byte{0x02}},
	})

	result, err := Run(bufA, bufB, Options{
		RangeA:       "[:]",
		RangeB:       "[:]",
		TimeNeg:      0.01,
		TimePos:      0.01,
		SearchMethod: "timestamp",
		OutputFormat: "added",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assert.Equal(t, 1, result.Matched)
	assert.Equal(t, 1, result.Added)
}

func TestRunRejectsAutoAlignWithExplicitOffset(t *testing.T) {
	bufA := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})
	bufB := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})

	_, err := Run(bufA, bufB, Options{
		RangeA:       "[:]",
		RangeB:       "[:]",
		AutoAlign:    true,
		TimeOffsetA:  1,
		SearchMethod: "timestamp",
		OutputFormat: "basic",
	})
	assert.Error(t, err)
}

func TestRunAutoAlignIsUnsupported(t *testing.T) {
	bufA := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})
	bufB := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})

	_, err := Run(bufA, bufB, Options{
		RangeA:       "[:]",
		RangeB:       "[:]",
		AutoAlign:    true,
		SearchMethod: "timestamp",
		OutputFormat: "basic",
	})
	assert.Error(t, err)
}

func TestRunVerboseWritesProgress(t *testing.T) {
	bufA := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})
	bufB := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})

	var out bytes.Buffer
	_, err := Run(bufA, bufB, Options{
		RangeA:       "[:]",
		RangeB:       "[:]",
		TimeNeg:      0.01,
		TimePos:      0.01,
		SearchMethod: "timestamp",
		OutputFormat: "basic",
		Verbose:      &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "packets matched")
}

func TestRunRejectsMismatchedLinkTypesUnderBasic(t *testing.T) {
	bufA := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})
	bufB := buildPCAP(2, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})

	_, err := Run(bufA, bufB, Options{
		RangeA:       "[:]",
		RangeB:       "[:]",
		TimeNeg:      0.01,
		TimePos:      0.01,
		SearchMethod: "timestamp",
		OutputFormat: "basic",
	})
	assert.Error(t, err)
}

func TestRunRejectsUnknownOutputFormat(t *testing.T) {
	bufA := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})
	bufB := buildPCAP(1, [][3]interface{}{{uint32(1), uint32(0), []byte{0x01}}})

	_, err := Run(bufA, bufB, Options{
		RangeA:       "[:]",
		RangeB:       "[:]",
		SearchMethod: "timestamp",
		OutputFormat: "bogus",
	})
	assert.Error(t, err)
}
