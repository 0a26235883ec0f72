/*
Package iso7816 is the APDU layer used to talk to SECCOS banking cards
(girocard, Sparkasse and Volksbank cards): command and response APDUs, class,
instruction and status word decoding, builders for the file access commands,
and a Client that resolves the T=0 procedure bytes.

# Command cases

A command is CLA INS P1 P2, optionally followed by Lc and data, optionally
followed by Le. SECCOS file access uses:

	SELECT        case 3  CLA A4 P1 0C Lc FID
	READ BINARY   case 2  CLA B0 P1 P2 Le
	READ RECORD   case 2  CLA B2 rec P2 Le
	GET CHALLENGE case 2  CLA 84 00 00 Le

Le '00' stands for 256 bytes. Extended lengths are encoded but no SECCOS
command in this package needs them.

# Status words

The response ends with SW1 SW2. 9000 is success. 61XX tells the terminal to
fetch XX more bytes with GET RESPONSE, 6CXX to repeat the command with
Le = XX; the Client does both and records every step in a Trace. 6282 means
the file ended before Le bytes were read; the data received is still valid.

# Reading EF.GDO

	client := iso7816.NewClient(reader)
	cls := iso7816.StandardClass

	if _, err := client.Send(iso7816.SelectByFID(cls, 0x2F02)); err != nil {
	    return err
	}
	trace, err := client.Send(iso7816.ReadBinary(cls, 0, 0))
	if err != nil {
	    return err
	}
	result, _ := iso7816.NewReadBinaryResult(trace)
	fmt.Println(result.Describe())
*/
package iso7816
