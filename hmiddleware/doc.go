/* Copyright (c) 2018 Salesforce
 * All rights reserved.
 * Licensed under the BSD 3-Clause license.
 * For full license text, see LICENSE.txt file in the repo root  or https://opensource.org/licenses/BSD-3-Clause
 */

// Package hmiddleware contains chi style (function that takes and returns
// an HTTP handler) middleware used next to the exchange instrumentation of
// package httpmetrics.
package hmiddleware
