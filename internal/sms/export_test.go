package sms

import "time"

// Test hooks for the external sms_test package, which cannot live in package
// sms because internal/testutil imports internal/server, which imports sms.

var WithinWorkingHours = withinWorkingHours

func SetNow(s *Service, now func() time.Time) { s.now = now }
