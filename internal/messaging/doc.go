// Package messaging implements the messaging channel: it splits a text body
// into transmission parts and hands them to an SMS transmitter.
//
// Division follows the GSM 03.38 rules carriers apply. Bodies that fit the
// 7-bit default alphabet (plus its extension table) use 160/153 septet
// limits, anything else falls back to UCS-2 with 70/67 code unit limits.
// Transmission is delegated to a Transmitter; the HTTP gateway transmitter
// is the production implementation.
package messaging
