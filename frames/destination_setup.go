// Copyright (c) 2026 Netifi, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package frames

import (
	"net"
	"strconv"

	"github.com/google/uuid"
	"github.com/netifi/netifi-go/brokererrors"
	"github.com/netifi/netifi-go/tags"
)

// DestinationSetup is the first frame a client sends on a new broker
// connection. It tells the broker which group the client belongs to and
// carries the client's credentials.
type DestinationSetup struct {
	// LocalAddress is optional. IPv4 addresses are encoded in four bytes.
	LocalAddress    net.IP
	Group           string
	AccessKey       uint64
	AccessToken     []byte
	ConnectionID    uuid.UUID
	AdditionalFlags uint16
	Tags            tags.Tags
}

// ConnectionID derives a stable connection id from a client-wide seed and the
// index of the pool member that owns the connection, so that a member that
// reconnects presents the same id to the broker.
func ConnectionID(seed string, index int) uuid.UUID {
	return uuid.NewMD5(uuid.NameSpaceOID, []byte(seed+"-"+strconv.Itoa(index)))
}

func encodeAddress(ip net.IP) []byte {
	if ip == nil {
		return nil
	}
	if v4 := ip.To4(); v4 != nil {
		return v4
	}
	return ip.To16()
}

// EncodeDestinationSetup encodes a DESTINATION_SETUP frame.
func EncodeDestinationSetup(d DestinationSetup) []byte {
	addr := encodeAddress(d.LocalAddress)
	size := 4 + len(addr) +
		4 + len(d.Group) +
		8 +
		4 + len(d.AccessToken) +
		len(d.ConnectionID) +
		2 +
		tagsSize(d.Tags)

	w := newWriter(FrameTypeDestinationSetup, size)
	w.putBytes(addr)
	w.putString(d.Group)
	w.putUint64(d.AccessKey)
	w.putBytes(d.AccessToken)
	w.putRaw(d.ConnectionID[:])
	w.putUint16(d.AdditionalFlags)
	w.putTags(d.Tags)
	return w.buf
}

// DecodeDestinationSetup decodes a DESTINATION_SETUP frame.
func DecodeDestinationSetup(frame []byte) (DestinationSetup, error) {
	if err := expectType(frame, FrameTypeDestinationSetup); err != nil {
		return DestinationSetup{}, err
	}

	r := newReader(frame, FrameTypeDestinationSetup)
	var d DestinationSetup
	addr := r.bytes()
	d.Group = r.string()
	d.AccessKey = r.uint64()
	d.AccessToken = r.bytes()
	copy(d.ConnectionID[:], r.take(uint64(len(d.ConnectionID))))
	d.AdditionalFlags = r.uint16()
	d.Tags = r.tags()
	if err := r.Err(); err != nil {
		return DestinationSetup{}, err
	}

	switch len(addr) {
	case 0:
	case net.IPv4len, net.IPv6len:
		d.LocalAddress = net.IP(append([]byte(nil), addr...))
	default:
		return DestinationSetup{}, brokererrors.InvalidArgumentErrorf(
			"invalid local address length %d in %v frame", len(addr), FrameTypeDestinationSetup)
	}
	return d, nil
}
