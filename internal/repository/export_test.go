package repository

var SQLiteDSN = sqliteDSN
