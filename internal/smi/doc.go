// Package smi holds the SNMP management-information vocabulary shared by the
// agent core: object identifiers, variable syntaxes, error-status codes,
// security models and levels, and the RowStatus and StorageType textual
// conventions.
//
// Values follow the numbering of RFC 3416 (error status), RFC 3411
// (security model and level) and RFC 2579 (RowStatus, StorageType) so that
// they can be placed on the wire unchanged by the PDU layer.
package smi
