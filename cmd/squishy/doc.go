// Command squishy manages a squishy collection log from the terminal:
// records with staged photos, filters and captions, statistics and JSON
// backups.
package main
