// Package httpapi is the HTTP driving adapter of the coupon service.
//
// Issue endpoints:
//
//	POST /v1/issue         issue synchronously
//	POST /v1/issue-async   admit under a per-coupon lock, issue later
//	POST /v2/issue-async   admit with one atomic repository call, issue later
//
// Each takes {"couponId":1,"userId":2} and answers
// {"isSuccess":true,"comment":null}. A coupon issue rule violation is still
// a 200 response with isSuccess false and the reason in comment.
//
// Admin endpoints create, list and read coupon policies under /v1/coupons.
package httpapi
