// Command takeout imports a Google Takeout export into a date-organized
// library, reconciling embedded tags with the export's JSON sidecars.
package main
