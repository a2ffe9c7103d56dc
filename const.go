package main

const (
	eolLF   = "\n"
	eolCRLF = "\r\n"
)
