package catalog

// schema constrains catalog files. Unknown top-level fields and column
// attributes are rejected through the closed #Catalog definition.
const schema = `
#Column: {
	type:      string
	nullable:  *false | bool
}

#Function: {
	min:       *0 | int & >=0
	max?:      int & >=-1
	returns:   *"first" | string
	shape:     *"positional" | "named" | "keyvalue" | "row" | "keyword"
	families?: [...("postgresql" | "postgres" | "pg" | "mysql" | "sqlite" | "sqlite3")]
}

#Catalog: {
	tables?: [string]: {
		columns: [string]: #Column
	}
	functions?: [string]: #Function
	defaults?: [#Kind]: string
}

#Kind: "bool" | "int" | "uint" | "float" | "string" | "bytes" | "time" | "duration" | "decimal" | "uuid" | "json"
`
