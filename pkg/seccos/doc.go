/*
Package seccos is the command codec for SECCOS chip cards (the German banking
card operating system behind HBCI/DDV and girocard).

A Card turns semantic parameters into fixed-layout command APDUs, submits
them through a Terminal, classifies the returned status word and hands back
the payload without its SW1-SW2 trailer:

	card := seccos.NewCard(session)

	if err := card.SelectFile(0x2F02); err != nil {
	    return err
	}
	data, err := card.ReadBinary(seccos.Offset(0x10), seccos.MaxSize(32))

Every call is one synchronous request/response. The Card keeps no state
between calls. Serializing access to the physical card is the Terminal's job.

# Errors

Failures are reported as values:
  - *StatusError: the card answered with a status the Classifier rejects.
  - *CommandError: the command could not be encoded, the terminal failed,
    or the response broke the framing rules. The wrapped error is one of
    ErrShortResponse, ErrResponseTooLarge or ErrBufferTooSmall, or the
    terminal's own error.
*/
package seccos
