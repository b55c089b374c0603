package runtime

import (
	"github.com/xraph/promptledger/address"
	"github.com/xraph/promptledger/program"
)

// NewInitializeUser builds an InitializeUser instruction for authority.
func NewInitializeUser(prog *program.Program, authority address.PublicKey) Instruction {
	userRecord, _ := prog.Deriver().UserAddress(authority)
	return Instruction{
		ProgramID: prog.ID(),
		Accounts: []AccountMeta{
			{PublicKey: authority, IsSigner: true, IsWritable: true},
			{PublicKey: userRecord, IsWritable: true},
			{PublicKey: address.SystemProgramID},
		},
		Data: program.EncodeInitializeUser(),
	}
}

// NewLogInteraction builds a LogInteraction instruction for authority.
func NewLogInteraction(prog *program.Program, authority address.PublicKey, args program.LogInteractionArgs) Instruction {
	userRecord, _ := prog.Deriver().UserAddress(authority)
	treasury, _ := prog.Deriver().TreasuryAddress()
	return Instruction{
		ProgramID: prog.ID(),
		Accounts: []AccountMeta{
			{PublicKey: authority, IsSigner: true, IsWritable: true},
			{PublicKey: userRecord, IsWritable: true},
			{PublicKey: treasury, IsWritable: true},
			{PublicKey: address.SystemProgramID},
		},
		Data: program.EncodeLogInteraction(args),
	}
}
