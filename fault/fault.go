// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2019 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - error base
type GenericError string

// to allow for different classes of errors
type AuthorityError GenericError
type ContractError GenericError
type ExistsError GenericError
type InsufficientError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError
type ResourceError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised  = GenericError("already initialised")
	ErrInitialisationError = GenericError("initialisation error")
	ErrNotInitialised      = GenericError("not initialised")

	ErrCommitteeApprovalRequired  = AuthorityError("operation requires committee approval")
	ErrDuplicateSignature         = AuthorityError("duplicate signature included")
	ErrIrrelevantSignature        = AuthorityError("unnecessary signature")
	ErrMissingActiveAuthority     = AuthorityError("missing required active authority")
	ErrMissingOtherAuthority      = AuthorityError("missing required other authority")
	ErrMissingOwnerAuthority      = AuthorityError("missing required owner authority")
	ErrMissingSecondaryAuthority  = AuthorityError("missing required secondary authority")
	ErrNotAuthorisedByPlatform    = AuthorityError("platform is not authorised by account")
	ErrNotCommitteeMember         = AuthorityError("account is not an active committee member")
	ErrNotContractOwner           = AuthorityError("only the contract owner can update it")
	ErrNotRegistrar               = AuthorityError("account is not a registrar")
	ErrPayerPermission            = AuthorityError("ram payer is not allowed")
	ErrPermissionDenied           = AuthorityError("permission denied")
	ErrWrongBlockSigningKey       = AuthorityError("block signed by wrong key")
	ErrWrongBlockWitness          = AuthorityError("block produced by wrong witness")
	ErrWrongInlineSender          = AuthorityError("inline action sender must be the receiver")
	ErrWrongIssuer                = AuthorityError("account is not the asset issuer")
	ErrWrongSeller                = AuthorityError("account is not the order seller")
	ErrWhitelistRejected          = AuthorityError("account is not authorized to hold the asset")
	ErrAllowedAssetsRejected      = AuthorityError("asset is not in the allowed list of the account")
	ErrAccountCannotVote          = AuthorityError("account is not allowed to vote")
	ErrAccountCannotPost          = AuthorityError("account is not allowed to post")
	ErrAccountCannotReply         = AuthorityError("account is not allowed to reply")
	ErrAccountCannotRate          = AuthorityError("account is not allowed to rate")
	ErrPlatformPermissionRequired = AuthorityError("platform permission is required")

	ErrAbortCalled          = ContractError("abort() called")
	ErrAssertCode           = ContractError("assertion failure with error code")
	ErrAssertMessage        = ContractError("assertion failure with message")
	ErrContractNotFound     = ContractError("contract not found")
	ErrHashMismatch         = ContractError("hash mismatch")
	ErrInvalidABI           = ContractError("invalid contract abi")
	ErrInvalidIterator      = ContractError("invalid iterator")
	ErrMemoryOverlap        = ContractError("memcpy can only accept non-aliasing pointers")
	ErrMethodNotFound       = ContractError("method not found in contract abi")
	ErrNotPayable           = ContractError("method is not payable")
	ErrOutOfBounds          = ContractError("access violation")
	ErrSameCode             = ContractError("contract code is unchanged")
	ErrTableAccessViolation = ContractError("db access violation")
	ErrWasmExecution        = ContractError("wasm execution error")
	ErrWasmValidation       = ContractError("wasm validation error")

	ErrAccountExists         = ExistsError("account already exists")
	ErrAccountNameExists     = ExistsError("account name already exists")
	ErrAdvertisingExists     = ExistsError("advertising already exists")
	ErrAssetExists           = ExistsError("asset symbol already exists")
	ErrCommitteeMemberExists = ExistsError("account is already a committee member")
	ErrCustomVoteExists      = ExistsError("custom vote already exists")
	ErrDuplicateIndexKey     = ExistsError("duplicate index key")
	ErrDuplicateTransaction  = ExistsError("duplicate transaction")
	ErrGenesisFileExists     = ExistsError("genesis file already exists")
	ErrKeyExists             = ExistsError("key already exists")
	ErrLicenseExists         = ExistsError("license already exists")
	ErrPlatformExists        = ExistsError("account already has a platform")
	ErrPostExists            = ExistsError("post already exists")
	ErrRowExists             = ExistsError("row with primary key already exists")
	ErrScoreExists           = ExistsError("score already exists")
	ErrWitnessExists         = ExistsError("account is already a witness")

	ErrInsufficientBalance = InsufficientError("insufficient balance")
	ErrInsufficientCSAF    = InsufficientError("insufficient csaf")
	ErrInsufficientFee     = InsufficientError("insufficient fee paid")
	ErrInsufficientFeePool = InsufficientError("insufficient fee pool")
	ErrInsufficientPledge  = InsufficientError("insufficient pledge")
	ErrInsufficientPrepaid = InsufficientError("insufficient prepaid")
	ErrInsufficientRealFee = InsufficientError("insufficient real fee")
	ErrInsufficientVotes   = InsufficientError("insufficient voting balance")

	ErrAssetNotCore              = InvalidError("asset must be the core asset")
	ErrBlockTooLarge             = InvalidError("block is too large")
	ErrCannotResign              = InvalidError("cannot resign while active")
	ErrCannotVoteWithProxy       = InvalidError("cannot vote while voting through a proxy")
	ErrExpiredTransaction        = InvalidError("transaction is expired")
	ErrFeeOptions                = InvalidError("fee options do not sum to total")
	ErrImpossibleAuthority       = InvalidError("authority can never be satisfied")
	ErrInvalidAccountName        = InvalidError("invalid account name")
	ErrInvalidAccountUID         = InvalidError("invalid account uid")
	ErrInvalidAmount             = InvalidError("invalid amount")
	ErrInvalidAssetSymbol        = InvalidError("invalid asset symbol")
	ErrInvalidAuthority          = InvalidError("invalid authority")
	ErrInvalidBlockNumber        = InvalidError("invalid block number")
	ErrInvalidBlockHeader        = InvalidError("invalid block header")
	ErrInvalidBlockTime          = InvalidError("invalid block timestamp")
	ErrInvalidChain              = InvalidError("invalid chain")
	ErrInvalidConfiguration      = InvalidError("invalid configuration")
	ErrInvalidCursor             = InvalidError("invalid cursor")
	ErrInvalidCount              = InvalidError("invalid count")
	ErrInvalidExpiration         = InvalidError("invalid expiration")
	ErrInvalidKey                = InvalidError("invalid key")
	ErrInvalidLength             = InvalidError("invalid length")
	ErrInvalidLoggerChannel      = InvalidError("invalid logger channel")
	ErrInvalidName               = InvalidError("invalid name")
	ErrInvalidMerkleRoot         = InvalidError("invalid merkle root")
	ErrInvalidOperation          = InvalidError("invalid operation")
	ErrInvalidParameter          = InvalidError("invalid parameter")
	ErrInvalidPercentage         = InvalidError("invalid percentage")
	ErrInvalidPrice              = InvalidError("invalid price")
	ErrInvalidPreviousBlock      = InvalidError("previous block does not match head")
	ErrInvalidProxy              = InvalidError("invalid proxy")
	ErrInvalidReferenceBlock     = InvalidError("transaction reference block does not match")
	ErrInvalidSignature          = InvalidError("invalid signature")
	ErrInvalidURL                = InvalidError("invalid url")
	ErrInvalidVoteChange         = InvalidError("invalid vote change")
	ErrNoChange                  = InvalidError("nothing changed")
	ErrNotCanonical              = InvalidError("signature is not canonical")
	ErrOperationNotEnabled       = InvalidError("operation is not enabled")
	ErrOrderNotFilled            = InvalidError("fill or kill order was not filled")
	ErrProposalNotReady          = InvalidError("proposal is not ready")
	ErrProxyDepth                = InvalidError("proxy chain is too deep")
	ErrTooManyAuthorities        = InvalidError("too many authorities")
	ErrTooManyVotes              = InvalidError("too many votes")
	ErrTransactionTooLarge       = InvalidError("transaction is too large")
	ErrTransactionTooFarInFuture = InvalidError("transaction expiration is too far in the future")
	ErrTruncatedData             = InvalidError("truncated data")
	ErrUnexpectedData            = InvalidError("unexpected trailing data")
	ErrUnknownOperation          = InvalidError("unknown operation tag")
	ErrVoterInvalid              = InvalidError("voter is not valid")
	ErrVotingClosed              = InvalidError("voting is closed")

	ErrAccountNotFound         = NotFoundError("account not found")
	ErrAdvertisingNotFound     = NotFoundError("advertising not found")
	ErrAdvertisingOrderMissing = NotFoundError("advertising order not found")
	ErrAssetNotFound           = NotFoundError("asset not found")
	ErrBlockNotFound           = NotFoundError("block not found")
	ErrCommitteeMemberNotFound = NotFoundError("committee member not found")
	ErrCustomVoteNotFound      = NotFoundError("custom vote not found")
	ErrKeyNotFound             = NotFoundError("key not found")
	ErrLicenseNotFound         = NotFoundError("license not found")
	ErrObjectNotFound          = NotFoundError("object not found")
	ErrOrderNotFound           = NotFoundError("limit order not found")
	ErrPlatformNotFound        = NotFoundError("platform not found")
	ErrPostNotFound            = NotFoundError("post not found")
	ErrProposalNotFound        = NotFoundError("proposal not found")
	ErrRowNotFound             = NotFoundError("row not found")
	ErrScoreNotFound           = NotFoundError("score not found")
	ErrWitnessNotFound         = NotFoundError("witness not found")

	ErrBlackSwan           = ProcessError("black swan")
	ErrBlockLogCorrupt     = ProcessError("block log is corrupt")
	ErrBlockOutOfSequence  = ProcessError("block out of sequence")
	ErrCannotPopGenesis    = ProcessError("cannot pop the genesis block")
	ErrChainIDMismatch     = ProcessError("chain id does not match genesis")
	ErrDatabaseVersion     = ProcessError("incompatible database version")
	ErrInvariantViolated   = ProcessError("invariant violated")
	ErrNoActiveWitnesses   = ProcessError("no active witnesses")
	ErrPopEmptyChain       = ProcessError("there are no blocks to pop")
	ErrReservoirDisabled   = ProcessError("transaction pool is disabled")
	ErrReservoirFile       = ProcessError("transaction pool file is corrupt")
	ErrTransactionInUse    = ProcessError("database transaction already in use")
	ErrTransactionRejected = ProcessError("transaction was recently rejected")
	ErrUnlinkableBlock     = ProcessError("block does not link to known chain")
	ErrUndoSessionInactive = ProcessError("undo session is not active")
	ErrUndoStackEmpty      = ProcessError("undo stack is empty")

	ErrBlockNetUsage       = ResourceError("block net usage exceeded")
	ErrCPUExceeded         = ResourceError("transaction cpu usage exceeded")
	ErrDeadlineReached     = ResourceError("deadline reached")
	ErrLeewayDeadline      = ResourceError("leeway deadline reached")
	ErrRAMUsageExceeded    = ResourceError("ram usage exceeded")
	ErrInlineDepthExceeded = ResourceError("inline action depth exceeded")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e AuthorityError) Error() string    { return string(e) }
func (e ContractError) Error() string     { return string(e) }
func (e ExistsError) Error() string       { return string(e) }
func (e InsufficientError) Error() string { return string(e) }
func (e InvalidError) Error() string      { return string(e) }
func (e NotFoundError) Error() string     { return string(e) }
func (e ProcessError) Error() string      { return string(e) }
func (e ResourceError) Error() string     { return string(e) }

// determine the class of an error
func IsErrAuthority(e error) bool    { _, ok := cause(e).(AuthorityError); return ok }
func IsErrContract(e error) bool     { _, ok := cause(e).(ContractError); return ok }
func IsErrExists(e error) bool       { _, ok := cause(e).(ExistsError); return ok }
func IsErrInsufficient(e error) bool { _, ok := cause(e).(InsufficientError); return ok }
func IsErrInvalid(e error) bool      { _, ok := cause(e).(InvalidError); return ok }
func IsErrNotFound(e error) bool     { _, ok := cause(e).(NotFoundError); return ok }
func IsErrProcess(e error) bool      { _, ok := cause(e).(ProcessError); return ok }
func IsErrResource(e error) bool     { _, ok := cause(e).(ResourceError); return ok }

// unwrap any context added by errors.Wrap to reach the fault instance
func cause(e error) error {
	type causer interface {
		Cause() error
	}
	type unwrapper interface {
		Unwrap() error
	}
	for nil != e {
		switch c := e.(type) {
		case causer:
			e = c.Cause()
		case unwrapper:
			e = c.Unwrap()
		default:
			return e
		}
	}
	return e
}
