// CloudSIEM - Security Event Ingestion and Behavioral Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cloudsiem

package store

import (
	"time"
)

// Key layout:
//
//	evt:<ts>#<id>                 event record
//	alr:<ts>#<id>                 alert record
//	act:<actorKey>\x00<ts>#<id>   actor index, value is the event key
//
// <ts> is a fixed-width UTC timestamp, so byte order equals time order.
// The NUL separator keeps one actor's range from overlapping another actor
// whose key extends it (IP#10.0.0.1 vs IP#10.0.0.10).
const (
	prefixEvent = "evt:"
	prefixAlert = "alr:"
	prefixActor = "act:"

	actorSep = 0x00
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

func tsKey(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func eventKey(ts time.Time, id string) []byte {
	return []byte(prefixEvent + tsKey(ts) + "#" + id)
}

func alertKey(ts time.Time, id string) []byte {
	return []byte(prefixAlert + tsKey(ts) + "#" + id)
}

func actorPrefix(actorKey string) []byte {
	b := make([]byte, 0, len(prefixActor)+len(actorKey)+1)
	b = append(b, prefixActor...)
	b = append(b, actorKey...)
	return append(b, actorSep)
}

func actorIndexKey(actorKey string, ts time.Time, id string) []byte {
	return append(actorPrefix(actorKey), tsKey(ts)+"#"+id...)
}

func actorSeekKey(actorKey string, since time.Time) []byte {
	return append(actorPrefix(actorKey), tsKey(since)...)
}

// seekLast returns a key that sorts after every key with prefix.
func seekLast(prefix []byte) []byte {
	k := make([]byte, 0, len(prefix)+1)
	k = append(k, prefix...)
	return append(k, 0xFF)
}
