/*
Package keymap holds the storage-side registries: key templates per record
type and unmarshal functions per entity type name.

Index maps associate a Go type with DynamoDB key templates. Macros in braces
are filled from the record's fields:

	keymap.RegisterIndexMap[models.ImplementorRecord](map[string]string{
	    "PK":     "REC#{ID}",
	    "SK":     "REC#{ID}",
	    "GSI1PK": "CAP#{Capability}",
	    "GSI1SK": "{Order}",
	})

Type registrations let a polymorphic query turn an item back into the right
type based on its EntityType attribute:

	keymap.RegisterType("ImplementorRecord", func(item map[string]types.AttributeValue) (interface{}, error) {
	    var rec models.ImplementorRecord
	    err := attributevalue.UnmarshalMap(item, &rec)
	    return &rec, err
	})

Both registries are safe for concurrent use and are normally populated from
init functions.
*/
package keymap
