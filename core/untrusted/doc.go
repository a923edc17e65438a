// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

/*
Package untrusted reads and writes client-controlled request state such as
preference cookies. Values returned from this package come straight from the
client and must be validated before use.
*/
package untrusted
