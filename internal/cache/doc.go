// Telebridge - Robot Telemetry Stream Bridge
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/telebridge

/*
Package cache provides a small generic LRU cache with per-entry TTL.

The model cache uses it to remember which files on disk have already been
hashed and found to match their metadata, so repeat requests for a large
model do not re-read the whole file.

# Behavior

  - Get, Add and Remove are O(1); the least recently used entry is evicted
    when capacity is reached
  - Expiry is lazy: an expired entry is dropped when Get finds it, or by
    CleanupExpired
  - Time comes from a juju/clock.Clock so tests can drive expiry with
    testclock

# Usage

	stamps := cache.NewLRU[string, fileStamp](256, 10*time.Minute, nil)
	stamps.Add(path, stamp)
	if s, ok := stamps.Get(path); ok {
	    ...
	}

All methods are safe for concurrent use.
*/
package cache
