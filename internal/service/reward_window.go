package service

import "time"

// The daily reward resets at midnight Indian Standard Time regardless of
// where the server runs. This file is the only place the reward timezone
// appears; everything stored or compared elsewhere is a UTC instant.
var rewardZone = time.FixedZone("IST", 5*3600+30*60)

// sameRewardDay reports whether a and b fall on the same IST calendar day.
func sameRewardDay(a, b time.Time) bool {
	ay, am, ad := a.In(rewardZone).Date()
	by, bm, bd := b.In(rewardZone).Date()
	return ay == by && am == bm && ad == bd
}

// nextRewardReset returns the next IST midnight after now, as a UTC instant.
func nextRewardReset(now time.Time) time.Time {
	local := now.In(rewardZone)
	y, m, d := local.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, rewardZone).UTC()
}
