// Package events loads the macro announcement calendar (CPI prints and FOMC
// decisions) and maps each announcement onto the trading calendar of a return
// matrix.
package events
