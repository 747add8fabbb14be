// Package htmlreport renders quality reports as standalone HTML documents.
package htmlreport
