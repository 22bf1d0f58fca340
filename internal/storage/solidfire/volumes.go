// Copyright The Telegen Authors
// SPDX-License-Identifier: Apache-2.0

package solidfire

import (
	"context"
	"strconv"
	"time"

	"github.com/platformbuilds/sfcollector/internal/storagedef"
)

// AccountResolver maps an account ID to its username.
type AccountResolver func(ctx context.Context, accountID int64) (string, error)

func volumeID(v Volume) int64 { return v.VolumeID }

// VolumeSamples emits per-volume counters under the owning account's
// username. Every stats record must reference a listed volume.
func VolumeSamples(ctx context.Context, prefix string, volumes []Volume, stats []VolumeStats, resolve AccountResolver, ts time.Time) ([]storagedef.Sample, error) {
	byID := IndexBy(volumes, volumeID)
	b := newBuilder(prefix, ts, len(stats)*22)
	for i := range stats {
		vol, ok := byID[stats[i].VolumeID]
		if !ok {
			return nil, storagedef.Generalf("ListVolumeStatsByVolume", "volume %d is not in the volume list", stats[i].VolumeID)
		}
		username, err := resolve(ctx, vol.Record.AccountID)
		if err != nil {
			return nil, err
		}
		b.addFields(stats[i].fields(), "accountID", username, "volume", vol.Record.Name)
	}
	return b.samples(), nil
}

func (c *Collector) collectVolumes(ctx context.Context, prefix string, ts time.Time) ([]storagedef.Sample, error) {
	var (
		volumes []Volume
		stats   []VolumeStats
	)
	err := c.fetch(ctx,
		func(ctx context.Context) (err error) {
			volumes, err = c.session.ListVolumes(ctx, false)
			return err
		},
		func(ctx context.Context) (err error) {
			stats, err = c.session.ListVolumeStatsByVolume(ctx, false)
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return VolumeSamples(ctx, prefix, volumes, stats, c.accountName, ts)
}

// accountName resolves a username through the account cache.
func (c *Collector) accountName(ctx context.Context, accountID int64) (string, error) {
	if name, ok := c.accounts.Get(accountID); ok {
		return name, nil
	}
	acct, err := c.session.GetAccountByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	name := acct.Username
	if name == "" {
		name = strconv.FormatInt(accountID, 10)
	}
	c.accounts.Put(accountID, name)
	return name, nil
}
