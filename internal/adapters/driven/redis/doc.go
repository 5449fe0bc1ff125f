// Package redis implements the issue request repository and the named lock
// on top of Redis.
//
// Admitted requests are kept in two structures:
//
//	issue.request.couponId=<id>   set of user ids with an admitted request
//	issue.request                 list of JSON payloads in enqueue order
//
// Locks are plain keys written with SET NX PX and an owner token, released
// by a compare-and-delete script so an expired holder cannot free a lock
// that has since been taken by someone else.
package redis
